// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis implements worklist-driven recursive-descent code
// discovery. It generalizes the emulator core's decode-then-execute
// stepping loop, which advances one CPU's own program counter, into a
// driver that decodes at many addresses drawn from a LIFO worklist,
// delegating all decode and side-effect logic to a proc.Processor.
package analysis

import (
	"errors"
	"fmt"

	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/space"
)

// DefaultBudget is the default per-call instruction budget.
const DefaultBudget = 40000

// ProgressInterval is how often, in decoded instructions, the
// progress callback fires.
const ProgressInterval = 1000

// ErrProcessorBug indicates Emu returned false, a fatal condition the
// driver does not attempt to recover from.
var ErrProcessorBug = errors.New("discore/analysis: processor bug")

// Driver holds the worklist and drives analysis over an address
// space using a pluggable processor.
type Driver struct {
	Space     *space.AddressSpace
	Processor proc.Processor
	Budget    int

	worklist []uint32
}

// New creates a driver over s using p to decode, with the default
// instruction budget.
func New(s *space.AddressSpace, p proc.Processor) *Driver {
	return &Driver{Space: s, Processor: p, Budget: DefaultBudget}
}

// Push schedules ea for decoding. It is the callback passed to
// Processor.Emu.
func (d *Driver) Push(ea uint32) {
	d.worklist = append(d.worklist, ea)
}

// Analyze drains the worklist, decoding up to the driver's budget of
// instructions. progress, if non-nil, is called every
// ProgressInterval decoded instructions. Analyze is idempotent and
// restartable: calling it again with more addresses pushed resumes
// where the budget left off.
func (d *Driver) Analyze(progress func(decoded int)) error {
	visited := make(map[uint32]bool)
	decoded := 0

	for len(d.worklist) > 0 && decoded < d.Budget {
		ea := d.worklist[len(d.worklist)-1]
		d.worklist = d.worklist[:len(d.worklist)-1]

		if visited[ea] {
			continue
		}
		visited[ea] = true

		var cmd proc.Cmd
		cmd.Addr = ea

		n := d.Processor.Ana(d.Space, &cmd)
		if n == 0 {
			// InvalidAddr or "not an instruction": benign path
			// terminator, continue with the next worklist entry.
			continue
		}

		if !d.Processor.Emu(d.Space, &cmd, d.Push) {
			return fmt.Errorf("%w: at %#08x", ErrProcessorBug, ea)
		}

		if err := d.Space.MakeCode(ea, n); err != nil {
			continue
		}

		d.Processor.Out(d.Space, &cmd)

		decoded++
		if progress != nil && decoded%ProgressInterval == 0 {
			progress(decoded)
		}
	}

	return nil
}
