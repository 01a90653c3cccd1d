// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package space implements the address space store: a collection of
// non-overlapping byte-addressable areas, each with a parallel flag
// buffer classifying every byte as code, data, a string, or unknown.
// It generalizes the single flat 64K buffer the emulator core once
// addressed into a slice of independently sized areas.
package space

import (
	"errors"
	"fmt"

	"github.com/beevik/discore/anno"
)

// Flag classifies a single byte in an area. Head values are a disjoint
// tag, not independent bits; the upper three bits are reserved for
// orthogonal flags layered in later with |= semantics.
type Flag byte

// Recognized flag values.
const (
	UNK       Flag = 0x00
	CODE      Flag = 0x01
	CODE_CONT Flag = 0x02
	DATA      Flag = 0x04
	DATA_CONT Flag = 0x08
	STR       Flag = 0x10
)

// ErrInvalidAddr is returned whenever an address falls outside every
// loaded area.
var ErrInvalidAddr = errors.New("discore/space: invalid address")

// Area is a contiguous, non-overlapping byte range with a parallel
// flag buffer. Props is an opaque descriptor (access bits, a name)
// the store passes through unchanged.
type Area struct {
	Start uint32
	End   uint32 // inclusive
	Props string

	bytes []byte
	flags []Flag
}

// Len returns the number of bytes the area spans.
func (a *Area) Len() int {
	return len(a.bytes)
}

// FlagBytes returns a copy of the area's raw flag buffer, one byte per
// flag, for persistence.
func (a *Area) FlagBytes() []byte {
	out := make([]byte, len(a.flags))
	for i, f := range a.flags {
		out[i] = byte(f)
	}
	return out
}

// SetFlagBytes overwrites the area's entire flag buffer from data,
// used when restoring flags from persistence. It fails if data's
// length does not match the area's size.
func (a *Area) SetFlagBytes(data []byte) error {
	if len(data) != len(a.flags) {
		return fmt.Errorf("discore/space: flag data length %d does not match area size %d", len(data), len(a.flags))
	}
	for i, b := range data {
		a.flags[i] = Flag(b)
	}
	return nil
}

// AddressSpace is the full set of loaded areas plus the annotation
// tables anchored to them.
type AddressSpace struct {
	*anno.Tables

	areas    []*Area
	lastArea int // one-slot cache, index into areas
}

// New creates an empty address space.
func New() *AddressSpace {
	return &AddressSpace{Tables: anno.NewTables()}
}

// AddArea appends a new area spanning [start, end]. The caller
// guarantees it does not overlap any existing area.
func (s *AddressSpace) AddArea(start, end uint32, props string) *Area {
	n := int(end-start) + 1
	a := &Area{
		Start: start,
		End:   end,
		Props: props,
		bytes: make([]byte, n),
		flags: make([]Flag, n),
	}
	s.areas = append(s.areas, a)
	return a
}

// Areas returns the loaded areas in add-order.
func (s *AddressSpace) Areas() []*Area {
	return s.areas
}

// find locates the area containing addr, consulting the one-slot
// cache before falling back to a linear scan.
func (s *AddressSpace) find(addr uint32) (*Area, int, bool) {
	if s.lastArea < len(s.areas) {
		if a := s.areas[s.lastArea]; addr >= a.Start && addr <= a.End {
			return a, s.lastArea, true
		}
	}
	for i, a := range s.areas {
		if addr >= a.Start && addr <= a.End {
			s.lastArea = i
			return a, i, true
		}
	}
	return nil, 0, false
}

// FindAreaIndex returns the index of the area containing addr.
func (s *AddressSpace) FindAreaIndex(addr uint32) (int, bool) {
	_, i, ok := s.find(addr)
	return i, ok
}

// LoadContent copies data into the address space starting at addr.
// It fails if any byte of the range falls outside the area addr
// belongs to.
func (s *AddressSpace) LoadContent(addr uint32, data []byte) error {
	a, _, ok := s.find(addr)
	if !ok {
		return fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	off := int(addr - a.Start)
	if off+len(data) > len(a.bytes) {
		return fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	copy(a.bytes[off:], data)
	return nil
}

// GetByte reads a single byte at addr.
func (s *AddressSpace) GetByte(addr uint32) (byte, error) {
	a, _, ok := s.find(addr)
	if !ok {
		return 0, fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	return a.bytes[addr-a.Start], nil
}

// GetBytes reads n bytes starting at addr. It fails if the range
// crosses outside the area addr belongs to.
func (s *AddressSpace) GetBytes(addr uint32, n int) ([]byte, error) {
	a, _, ok := s.find(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	off := int(addr - a.Start)
	if off+n > len(a.bytes) {
		return nil, fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	return a.bytes[off : off+n], nil
}

// GetData reads a little-endian integer of sz bytes (1, 2, or 4) at
// addr.
func (s *AddressSpace) GetData(addr uint32, sz int) (uint32, error) {
	b, err := s.GetBytes(addr, sz)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := sz - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v, nil
}

// GetFlags returns the flag byte at addr.
func (s *AddressSpace) GetFlags(addr uint32) (Flag, error) {
	a, _, ok := s.find(addr)
	if !ok {
		return UNK, fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	return a.flags[addr-a.Start], nil
}

// SetFlags writes head at addr and rest at the following sz-1
// positions.
func (s *AddressSpace) SetFlags(addr uint32, sz int, head, rest Flag) error {
	a, _, ok := s.find(addr)
	if !ok {
		return fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	off := int(addr - a.Start)
	if off+sz > len(a.flags) {
		return fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	a.flags[off] = head
	for i := 1; i < sz; i++ {
		a.flags[off+i] = rest
	}
	return nil
}

// MakeUndefined clears the flags of the sz bytes starting at addr.
func (s *AddressSpace) MakeUndefined(addr uint32, sz int) error {
	return s.SetFlags(addr, sz, UNK, UNK)
}

// MakeCode marks the sz bytes starting at addr as a code unit. The
// head flag is OR'd in, preserving any orthogonal bits already set.
func (s *AddressSpace) MakeCode(addr uint32, sz int) error {
	head, err := s.GetFlags(addr)
	if err != nil {
		return err
	}
	return s.SetFlags(addr, sz, head|CODE, CODE_CONT)
}

// MakeData marks the sz bytes starting at addr as a data unit. The
// head flag is OR'd in, preserving any orthogonal bits already set.
func (s *AddressSpace) MakeData(addr uint32, sz int) error {
	head, err := s.GetFlags(addr)
	if err != nil {
		return err
	}
	return s.SetFlags(addr, sz, head|DATA, DATA_CONT)
}

// GetUnitSize returns the length of the unit whose head is at addr,
// scanning forward over matching continuation flags. It returns 1 if
// the flag at addr is UNK or a continuation flag. Callers query only
// at unit heads; nothing checks this, and a mid-unit query silently
// returns 1.
func (s *AddressSpace) GetUnitSize(addr uint32) (int, error) {
	a, _, ok := s.find(addr)
	if !ok {
		return 0, fmt.Errorf("%w: %#08x", ErrInvalidAddr, addr)
	}
	off := int(addr - a.Start)
	head := a.flags[off]
	cont := contFlagFor(head)
	if cont == UNK {
		return 1, nil
	}
	n := 1
	for off+n < len(a.flags) && a.flags[off+n] == cont {
		n++
	}
	return n, nil
}

func contFlagFor(head Flag) Flag {
	switch {
	case head&CODE != 0:
		return CODE_CONT
	case head&DATA != 0 || head&STR != 0:
		return DATA_CONT
	default:
		return UNK
	}
}

// AdjustOffsetReverse walks backward from off inside area while the
// flag is a continuation flag, returning the offset of the unit head.
func AdjustOffsetReverse(off int, area *Area) int {
	for off > 0 && isCont(area.flags[off]) {
		off--
	}
	return off
}

func isCont(f Flag) bool {
	return f == CODE_CONT || f == DATA_CONT
}

// kindAt classifies the unit at addr for auto-label prefix purposes.
func (s *AddressSpace) kindAt(addr uint32) anno.Kind {
	f, err := s.GetFlags(addr)
	if err != nil {
		return anno.KindUnknown
	}
	switch {
	case f&CODE != 0:
		return anno.KindCode
	case f&DATA != 0 || f&STR != 0:
		return anno.KindData
	default:
		return anno.KindUnknown
	}
}

// GetLabel materializes the display string for the label at addr, if
// any.
func (s *AddressSpace) GetLabel(addr uint32) (string, bool) {
	return s.Labels.Get(addr, s.kindAt(addr))
}

// ResolveLabel reverses a label string to an address.
func (s *AddressSpace) ResolveLabel(name string) (uint32, bool) {
	return s.Labels.Resolve(name, s.kindAt)
}
