// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package anno implements the annotation tables (labels, comments,
// cross-references, and per-operand display properties) that sit on top
// of an address space. It generalizes the free-form per-address
// annotation map the debugger host once kept for its "annotate" command
// into the full label/comment/xref/arg-prop table set a disassembler
// needs.
package anno

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// Kind classifies the unit found at an address, which controls the
// prefix used when materializing an auto-label string.
type Kind byte

// Unit kinds recognized when materializing an auto-label.
const (
	KindCode Kind = iota
	KindData
	KindUnknown
)

func kindPrefix(k Kind) string {
	switch k {
	case KindCode:
		return "loc_"
	case KindData:
		return "dat_"
	default:
		return "unk_"
	}
}

// AutoName formats the on-demand display string for an auto-label at
// addr classified as kind.
func AutoName(k Kind, addr uint32) string {
	return fmt.Sprintf("%s%08x", kindPrefix(k), addr)
}

type labelEntry struct {
	auto bool
	name string
}

// LabelRecord is a single label, ready for persistence.
type LabelRecord struct {
	Addr uint32
	Auto bool
	Name string
}

// LabelTable maps addresses to either an explicit user string or an
// auto-label marker rendered on demand. MakeUnique keeps a new explicit
// label unique by consulting the reverse name index; SetLabel does not
// check for collisions.
//
// The reverse index also feeds a prefixtree-backed completer so a shell
// can offer prefix completion on label names; the completer is a
// best-effort convenience index (it is not pruned when a label is
// replaced) and is never consulted by Resolve, which is exact.
type LabelTable struct {
	entries   map[uint32]labelEntry
	byName    map[string]uint32
	completer *prefixtree.Tree[uint32]
}

// NewLabelTable creates an empty label table.
func NewLabelTable() *LabelTable {
	return &LabelTable{
		entries:   make(map[uint32]labelEntry),
		byName:    make(map[string]uint32),
		completer: prefixtree.New[uint32](),
	}
}

func (t *LabelTable) index(name string, addr uint32) {
	t.byName[name] = addr
	t.completer.Add(name, addr)
}

// MakeLabel stores an explicit label at addr. It is a no-op if a label,
// auto or explicit, already exists at addr.
func (t *LabelTable) MakeLabel(addr uint32, name string) {
	if _, ok := t.entries[addr]; ok {
		return
	}
	t.entries[addr] = labelEntry{name: name}
	t.index(name, addr)
}

// MakeAutoLabel stores the auto-label marker at addr. It is a no-op if a
// label already exists at addr.
func (t *LabelTable) MakeAutoLabel(addr uint32) {
	if _, ok := t.entries[addr]; ok {
		return
	}
	t.entries[addr] = labelEntry{auto: true}
}

// SetLabel force-replaces any label at addr with an explicit name,
// unlike MakeLabel.
func (t *LabelTable) SetLabel(addr uint32, name string) {
	if old, ok := t.entries[addr]; ok && !old.auto {
		delete(t.byName, old.name)
	}
	t.entries[addr] = labelEntry{name: name}
	t.index(name, addr)
}

// Has reports whether any label, auto or explicit, exists at addr.
func (t *LabelTable) Has(addr uint32) bool {
	_, ok := t.entries[addr]
	return ok
}

// Get materializes the display string for the label at addr, using kind
// to pick the auto-label prefix when the label is an auto marker.
func (t *LabelTable) Get(addr uint32, kind Kind) (string, bool) {
	e, ok := t.entries[addr]
	if !ok {
		return "", false
	}
	if e.auto {
		name := AutoName(kind, addr)
		t.index(name, addr)
		return name, true
	}
	return e.name, true
}

// MakeUnique appends "_1", "_2", ... to base until the result is absent
// from the table, stores it at addr as an explicit label, and returns
// the chosen name.
func (t *LabelTable) MakeUnique(addr uint32, base string) string {
	name := base
	for i := 1; ; i++ {
		if _, used := t.byName[name]; !used {
			break
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
	t.entries[addr] = labelEntry{name: name}
	t.index(name, addr)
	return name
}

// Resolve reverses a label string to an address. It checks explicit
// names first, then attempts to parse s as a materialized auto-label of
// the form "<prefix><hex8>", confirming the address still carries an
// auto marker classified as that prefix's kind.
func (t *LabelTable) Resolve(s string, kindAt func(uint32) Kind) (uint32, bool) {
	if addr, ok := t.byName[s]; ok {
		if e := t.entries[addr]; !e.auto && e.name == s {
			return addr, true
		}
	}
	for _, k := range [...]Kind{KindCode, KindData, KindUnknown} {
		p := kindPrefix(k)
		if !strings.HasPrefix(s, p) {
			continue
		}
		n, err := strconv.ParseUint(s[len(p):], 16, 32)
		if err != nil {
			continue
		}
		addr := uint32(n)
		if e, ok := t.entries[addr]; ok && e.auto && kindAt(addr) == k {
			return addr, true
		}
	}
	return 0, false
}

// CompletePrefix returns the address of the unique label name that
// begins with prefix, if there is exactly one.
func (t *LabelTable) CompletePrefix(prefix string) (uint32, bool) {
	addr, err := t.completer.FindValue(prefix)
	if err != nil {
		return 0, false
	}
	return addr, true
}

// All returns every label, sorted by address, ready for persistence.
func (t *LabelTable) All() []LabelRecord {
	out := make([]LabelRecord, 0, len(t.entries))
	for addr, e := range t.entries {
		out = append(out, LabelRecord{Addr: addr, Auto: e.auto, Name: e.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
