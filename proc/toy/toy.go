// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package toy implements a minimal two-opcode proc.Processor used as
// a working reference plugin: opcode 0x01 is a 5-byte call taking a
// 4-byte little-endian target, opcode 0x02 is a 1-byte return. It
// exists to exercise the analysis driver and rendering model with a
// concrete, spec-faithful decoder rather than a mock.
package toy

import (
	"fmt"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/space"
)

// Opcode values this processor recognizes.
const (
	OpCall = 0x01
	OpRet  = 0x02
)

// Processor is the toy two-opcode decoder.
type Processor struct{}

// New creates a toy processor.
func New() *Processor {
	return &Processor{}
}

// Ana decodes the opcode at cmd.Addr.
func (p *Processor) Ana(s *space.AddressSpace, cmd *proc.Cmd) int {
	op, err := s.GetByte(cmd.Addr)
	if err != nil {
		return 0
	}
	switch op {
	case OpCall:
		target, err := s.GetData(cmd.Addr+1, 4)
		if err != nil {
			return 0
		}
		cmd.Size = 5
		cmd.Operand[0] = proc.Operand{Type: proc.ONear, Flags: proc.OfShow, Value: target}
		return 5
	case OpRet:
		cmd.Size = 1
		return 1
	default:
		return 0
	}
}

// Emu pushes successor addresses and records the call xref.
func (p *Processor) Emu(s *space.AddressSpace, cmd *proc.Cmd, push func(uint32)) bool {
	op, err := s.GetByte(cmd.Addr)
	if err != nil {
		return false
	}
	switch op {
	case OpCall:
		target := cmd.Operand[0].Value
		s.Xrefs.Add(cmd.Addr, target, anno.XrefCall)
		push(target)
		push(cmd.Addr + 5)
		return true
	case OpRet:
		return true
	default:
		return false
	}
}

// Out formats cmd.Disasm from the decoded operands.
func (p *Processor) Out(s *space.AddressSpace, cmd *proc.Cmd) {
	op, err := s.GetByte(cmd.Addr)
	if err != nil {
		cmd.Disasm = "???"
		return
	}
	switch op {
	case OpCall:
		target := cmd.Operand[0].Value
		if name, ok := s.GetLabel(target); ok {
			cmd.Disasm = fmt.Sprintf("call %s", name)
		} else {
			cmd.Disasm = fmt.Sprintf("call %#08x", target)
		}
	case OpRet:
		cmd.Disasm = "ret"
	default:
		cmd.Disasm = "???"
	}
}
