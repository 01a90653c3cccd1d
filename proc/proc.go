// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proc defines the pluggable processor contract the analysis
// driver and rendering model consult to decode, emulate, and format
// one instruction at a time. It generalizes the teacher's concrete
// 6502 opcode table (one fixed instruction set, one fixed CPU) into
// an interface any instruction set can implement.
package proc

import "github.com/beevik/discore/space"

// OperandType classifies how an operand should be rendered and
// followed.
type OperandType byte

// Recognized operand types.
const (
	OVoid OperandType = iota
	OImm
	OMem
	ONear
)

// OfShow is set on an operand to indicate the renderer should display
// it; operands not marked OfShow are decode-only (e.g. an addressing
// mode's implicit register).
const OfShow = 0x01

// Operand is one decoded instruction argument.
type Operand struct {
	Type  OperandType
	Flags byte
	Value uint32
}

// Show reports whether the operand carries OfShow.
func (o Operand) Show() bool {
	return o.Flags&OfShow != 0
}

// Cmd is the mutable descriptor the driver and renderer populate
// before calling into a Processor, and which the Processor fills in
// during Ana/Emu/Out. It is owned by the driver for the duration of
// one iteration; no state survives across iterations except what the
// Processor writes into the address space's annotation tables.
type Cmd struct {
	Addr    uint32
	Size    int
	Disasm  string
	Operand [4]Operand
}

// Processor is the pluggable instruction decoder the analysis driver
// and rendering model call into. Implementations hold no state the
// core reads except through Cmd.
type Processor interface {
	// Ana decodes the instruction at cmd.Addr, reading bytes from s.
	// It returns the instruction length in bytes, or 0 if the bytes at
	// cmd.Addr do not form a valid instruction.
	Ana(s *space.AddressSpace, cmd *Cmd) int

	// Emu seeds successor addresses via push and records any xrefs or
	// labels the instruction implies in s's annotation tables. It
	// returns false on an internal inconsistency, which the driver
	// treats as a fatal processor bug.
	Emu(s *space.AddressSpace, cmd *Cmd, push func(uint32)) bool

	// Out renders cmd into cmd.Disasm.
	Out(s *space.AddressSpace, cmd *Cmd)
}
