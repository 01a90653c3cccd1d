// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render implements the windowed rendering model: it walks a
// range of the address space, consulting the annotation tables and
// the processor plugin, and produces an indexed sequence of display
// objects. It generalizes the debugger host's windowed disassembly
// print loop, which walked addresses and printed N lines directly,
// into a reusable model indexed by (address, sub-line).
package render

import (
	"errors"
	"fmt"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/line"
	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/space"
)

// MaxUnitSize is the per-line byte estimate used to size the backward
// context window in RenderPartialAround. It is not enforced: units may
// be longer (proc/toy's call is 5 bytes).
const MaxUnitSize = 4

// ErrEmptySpace is returned when there is no area to render from.
var ErrEmptySpace = errors.New("discore/render: address space has no areas")

type lineKey struct {
	addr  uint32
	subno int
}

// Target names a specific (address, sub-line) the UI cursor wants to
// land on; Model latches the line numbers it resolves to.
type Target struct {
	Addr  uint32
	Subno int
}

// Model is the rendered line sequence for one window, plus its
// (address, sub-line) indices.
type Model struct {
	Lines []*line.Object

	addr2line map[lineKey]int
	addr2real map[uint32]int

	lastAddr     uint32
	haveLastAddr bool
	subno        int

	target *Target

	// TargetLineFirst is the index of the first line emitted at
	// Target.Addr, TargetLineSubno the index of the line whose Subno
	// equals Target.Subno, and TargetLineReal the index of the first
	// non-virtual line at Target.Addr. All are -1 until latched.
	TargetLineFirst int
	TargetLineSubno int
	TargetLineReal  int
}

func newModel(target *Target) *Model {
	return &Model{
		addr2line:       make(map[lineKey]int),
		addr2real:       make(map[uint32]int),
		target:          target,
		TargetLineFirst: -1,
		TargetLineSubno: -1,
		TargetLineReal:  -1,
	}
}

// AddLine appends obj at addr, assigning its sub-line index (reset to
// 0 whenever addr differs from the previous call) and updating both
// (addr, subno) and (addr, -1)-equivalent indices.
func (m *Model) AddLine(addr uint32, obj *line.Object) {
	if !m.haveLastAddr || addr != m.lastAddr {
		m.subno = 0
		m.lastAddr = addr
		m.haveLastAddr = true
	} else {
		m.subno++
	}
	obj.Addr = addr
	obj.Subno = m.subno

	idx := len(m.Lines)
	m.Lines = append(m.Lines, obj)
	m.addr2line[lineKey{addr, m.subno}] = idx
	if _, ok := m.addr2real[addr]; !ok && !obj.IsVirtual() {
		m.addr2real[addr] = idx
	}

	if m.target != nil && addr == m.target.Addr {
		if m.TargetLineFirst < 0 {
			m.TargetLineFirst = idx
		}
		if m.subno == m.target.Subno {
			m.TargetLineSubno = idx
		}
		if m.TargetLineReal < 0 && !obj.IsVirtual() {
			m.TargetLineReal = idx
		}
	}
}

// LineAt returns the index of the line at (addr, subno), if any.
func (m *Model) LineAt(addr uint32, subno int) (int, bool) {
	idx, ok := m.addr2line[lineKey{addr, subno}]
	return idx, ok
}

// RealLineAt returns the index of the first non-virtual line at addr,
// the model's (addr, -1) entry.
func (m *Model) RealLineAt(addr uint32) (int, bool) {
	idx, ok := m.addr2real[addr]
	return idx, ok
}

type emitter struct {
	m             *Model
	budget        int
	target        *Target
	reachedTarget bool
}

// emit records obj at addr and reports whether rendering should
// continue. Before the target address is reached, emitted lines are
// free (the budget counts only lines at and after the target).
func (e *emitter) emit(addr uint32, obj *line.Object) bool {
	e.m.AddLine(addr, obj)
	if e.target != nil && !e.reachedTarget && addr == e.target.Addr {
		e.reachedTarget = true
	}
	if e.target == nil || e.reachedTarget {
		e.budget--
	}
	return e.budget > 0 || (e.target != nil && !e.reachedTarget)
}

// RenderPartial walks the address space starting at (areaIndex,
// offset), emitting at most numLines display lines (budgeted as
// described on emitter.emit), into a fresh Model. If target is
// non-nil, the model latches its cursor line numbers per AddLine's
// rules.
func RenderPartial(s *space.AddressSpace, p proc.Processor, areaIndex, offset, numLines int, target *Target) (*Model, error) {
	areas := s.Areas()
	if len(areas) == 0 {
		return nil, ErrEmptySpace
	}

	m := newModel(target)
	e := &emitter{m: m, budget: numLines, target: target}

	ai := areaIndex
	off := offset
	firstArea := true

	for ai < len(areas) {
		area := areas[ai]

		if !firstArea || off == 0 {
			text := fmt.Sprintf("; Start of 0x%08x area", area.Start)
			if !e.emit(area.Start, line.NewLiteral(area.Start, text)) {
				return m, nil
			}
		}
		firstArea = false

		for off < area.Len() {
			addr := area.Start + uint32(off)

			for _, src := range s.Xrefs.SourcesSorted(addr) {
				if !e.emit(addr, line.NewXref(addr, src.From, src.Tag)) {
					return m, nil
				}
			}
			if name, ok := s.GetLabel(addr); ok {
				if !e.emit(addr, line.NewLabel(addr, name)) {
					return m, nil
				}
			}

			obj, unitSize, err := renderUnit(s, p, addr)
			if err != nil {
				return m, err
			}
			if !e.emit(addr, obj) {
				return m, nil
			}
			off += unitSize
		}

		text := fmt.Sprintf("; End of 0x%08x area", area.Start)
		if !e.emit(area.Start+uint32(area.Len())-1, line.NewLiteral(area.Start+uint32(area.Len())-1, text)) {
			return m, nil
		}

		ai++
		off = 0
	}

	return m, nil
}

// renderUnit renders the single unit (xrefs and label excluded) whose
// head is at addr, returning the object and its byte size.
func renderUnit(s *space.AddressSpace, p proc.Processor, addr uint32) (*line.Object, int, error) {
	flags, err := s.GetFlags(addr)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case flags&space.CODE != 0:
		var cmd proc.Cmd
		cmd.Addr = addr
		n := p.Ana(s, &cmd)
		if n == 0 {
			b, _ := s.GetByte(addr)
			return line.NewUnknown(addr, b), 1, nil
		}
		p.Out(s, &cmd)
		comment, _ := s.Comments.Get(addr)
		return line.NewInstruction(addr, n, cmd.Disasm, comment, cmd.Operand[:]), n, nil

	case flags&space.STR != 0:
		n, err := s.GetUnitSize(addr)
		if err != nil {
			return nil, 0, err
		}
		b, err := s.GetBytes(addr, n)
		if err != nil {
			return nil, 0, err
		}
		return line.NewString(addr, b), n, nil

	case flags&space.DATA != 0:
		n, err := s.GetUnitSize(addr)
		if err != nil {
			return nil, 0, err
		}
		v, err := s.GetData(addr, n)
		if err != nil {
			return nil, 0, err
		}
		label := ""
		if t, _ := s.ArgProps.Get(addr, 0, "type").(string); t == "o_mem" {
			if name, ok := s.GetLabel(v); ok {
				label = name
			}
		}
		return line.NewData(addr, n, v, label), n, nil

	default:
		b, err := s.GetByte(addr)
		if err != nil {
			return nil, 0, err
		}
		return line.NewUnknown(addr, b), 1, nil
	}
}

// RenderPartialAround computes a backward context window of
// contextLines*MaxUnitSize bytes from (addr, subno), clamping to the
// first area's start and snapping to a unit head, then renders
// forward with target_addr = addr. If the exact subno no longer
// exists in the rendered window, TargetLineSubno falls back to
// TargetLineFirst.
func RenderPartialAround(s *space.AddressSpace, p proc.Processor, addr uint32, subno, contextLines int) (*Model, error) {
	areas := s.Areas()
	if len(areas) == 0 {
		return nil, ErrEmptySpace
	}

	ai, ok := s.FindAreaIndex(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %#08x", space.ErrInvalidAddr, addr)
	}
	area := areas[ai]
	off := int(addr - area.Start)

	remaining := contextLines * MaxUnitSize
	for remaining > 0 {
		if remaining <= off {
			off -= remaining
			remaining = 0
			break
		}
		if ai == 0 {
			off = 0
			remaining = 0
			break
		}
		remaining -= off
		ai--
		area = areas[ai]
		off = area.Len()
	}

	off = space.AdjustOffsetReverse(off, area)

	numLines := contextLines*2 + 4
	target := &Target{Addr: addr, Subno: subno}
	m, err := RenderPartial(s, p, ai, off, numLines, target)
	if err != nil {
		return nil, err
	}
	if m.TargetLineSubno < 0 {
		m.TargetLineSubno = m.TargetLineFirst
	}
	return m, nil
}
