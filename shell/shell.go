// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shell implements the interactive, line-oriented front end
// for the disassembler core: a read-eval-print loop built on
// github.com/beevik/cmd that loads bytes into an address space,
// drives analysis, inspects and edits annotations, renders
// disassembly windows, and persists a project to disk.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/discore/analysis"
	"github.com/beevik/discore/persist"
	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/render"
	"github.com/beevik/discore/space"
)

type state byte

const (
	stateProcessingCommands state = iota
	stateQuitting
)

// Shell is a running instance of the disassembler's interactive
// command loop.
type Shell struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	state       state
	lastCmd     *cmd.Selection

	space     *space.AddressSpace
	processor proc.Processor
	settings  *settings
	log       *slog.Logger

	lastModel *render.Model
}

// New creates a shell driving s with processor p. log receives
// analysis progress and error events; pass slog.Default() if the
// caller has no preference.
func New(s *space.AddressSpace, p proc.Processor, log *slog.Logger) *Shell {
	if log == nil {
		log = slog.Default()
	}
	return &Shell{
		space:     s,
		processor: p,
		settings:  newSettings(),
		log:       log,
	}
}

// RunCommands reads commands from r and writes results to w. If
// interactive is true, a prompt is displayed before each command.
func (sh *Shell) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	sh.input = bufio.NewScanner(r)
	sh.output = bufio.NewWriter(w)
	sh.interactive = interactive

	if interactive {
		sh.println("discore interactive shell. Type 'help' for a command list.")
	}

	for sh.state != stateQuitting {
		sh.prompt()

		line, err := sh.getLine()
		if err != nil {
			break
		}

		if err := sh.processCommand(line); err != nil {
			sh.printf("ERROR: %v\n", err)
		}
	}
}

func (sh *Shell) processCommand(line string) error {
	var c cmd.Selection
	if line != "" {
		var err error
		c, err = commands.Lookup(line)
		switch {
		case errors.Is(err, cmd.ErrNotFound):
			sh.println("Command not found.")
			return nil
		case errors.Is(err, cmd.ErrAmbiguous):
			sh.println("Command is ambiguous.")
			return nil
		case err != nil:
			return err
		}
	} else if sh.lastCmd != nil {
		c = *sh.lastCmd
	}

	if c.Command == nil {
		return nil
	}
	if c.Command.Data == nil && c.Command.Subtree != nil {
		sh.displayCommands(c.Command.Subtree, nil)
		return nil
	}

	sh.lastCmd = &c
	handler := c.Command.Data.(func(*Shell, cmd.Selection) error)
	return handler(sh, c)
}

func (sh *Shell) getLine() (string, error) {
	if sh.input.Scan() {
		return strings.TrimSpace(sh.input.Text()), nil
	}
	if err := sh.input.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.output, format, args...)
	sh.flush()
}

func (sh *Shell) println(args ...any) {
	fmt.Fprintln(sh.output, args...)
	sh.flush()
}

func (sh *Shell) flush() {
	sh.output.Flush()
}

func (sh *Shell) prompt() {
	if !sh.interactive {
		return
	}
	sh.printf("discore> ")
}

func (sh *Shell) displayUsage(c *cmd.Command) {
	if c.Usage != "" {
		sh.printf("Usage: %s\n", c.Usage)
	}
}

func (sh *Shell) displayCommands(tree *cmd.Tree, c *cmd.Command) {
	sh.printf("%s commands:\n", tree.Title)
	for _, cc := range tree.Commands {
		if cc.Brief != "" {
			sh.printf("    %-15s  %s\n", cc.Name, cc.Brief)
		}
	}
	sh.println()

	if c != nil && len(c.Shortcuts) > 0 {
		if len(c.Shortcuts) > 1 {
			sh.printf("Shortcuts: %s\n\n", strings.Join(c.Shortcuts, ", "))
		} else {
			sh.printf("Shortcut: %s\n\n", c.Shortcuts[0])
		}
	}
}

// AnalyzeFrom runs the analysis driver starting at entry, logging
// progress and any processor-bug assertion via sh.log rather than
// the REPL's output writer.
func (sh *Shell) AnalyzeFrom(entry uint32) error {
	d := analysis.New(sh.space, sh.processor)
	d.Push(entry)
	err := d.Analyze(func(decoded int) {
		sh.log.Info("analysis progress", "decoded", decoded)
	})
	if err != nil && errors.Is(err, analysis.ErrProcessorBug) {
		sh.log.Error("processor bug detected during analysis", "entry", fmt.Sprintf("0x%08x", entry), "error", err)
	}
	return err
}

// renderWindow renders numLines starting at addr, prints every line
// to the shell's output, keeps the model in sh.lastModel, and sets
// NextDisasmAddr to the address following the last rendered unit (or
// to the next area's start when that unit ends its area), so a disasm
// with no address continues from there.
func (sh *Shell) renderWindow(addr uint32, numLines int) error {
	areaIndex, ok := sh.space.FindAreaIndex(addr)
	if !ok {
		return fmt.Errorf("address 0x%08x is not in any loaded area", addr)
	}
	area := sh.space.Areas()[areaIndex]
	offset := int(addr - area.Start)

	m, err := render.RenderPartial(sh.space, sh.processor, areaIndex, offset, numLines, nil)
	if err != nil {
		return err
	}
	sh.lastModel = m
	for _, l := range m.Lines {
		sh.println(l.Render())
	}
	areas := sh.space.Areas()
	for i := len(m.Lines) - 1; i >= 0; i-- {
		if l := m.Lines[i]; !l.IsVirtual() {
			next := l.Addr + uint32(l.Size)
			if ai, ok := sh.space.FindAreaIndex(l.Addr); ok && next > areas[ai].End && ai+1 < len(areas) {
				next = areas[ai+1].Start
			}
			sh.settings.NextDisasmAddr = next
			break
		}
	}
	return nil
}

// SaveProject writes every annotation table and area flag buffer to
// text files under dir, creating it if necessary.
func (sh *Shell) SaveProject(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writers := []struct {
		name string
		fn   func(f *os.File) error
	}{
		{"labels.txt", func(f *os.File) error { return persist.SaveLabels(f, sh.space.Labels) }},
		{"comments.txt", func(f *os.File) error { return persist.SaveComments(f, sh.space.Comments) }},
		{"xrefs.txt", func(f *os.File) error { return persist.SaveXrefs(f, sh.space.Xrefs) }},
		{"argprops.txt", func(f *os.File) error { return persist.SaveArgProps(f, sh.space.ArgProps) }},
		{"areas.txt", func(f *os.File) error { return persist.SaveAreas(f, sh.space) }},
	}
	for _, w := range writers {
		if err := saveOne(filepath.Join(dir, w.name), w.fn); err != nil {
			return err
		}
	}
	return nil
}

func saveOne(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// OpenProject loads every annotation table and, if present, area flag
// buffer from text files under dir previously written by SaveProject.
// Areas referenced by areas.txt must already exist in the address
// space (see space.AddressSpace.AddArea); missing files are skipped.
func (sh *Shell) OpenProject(dir string) error {
	readers := []struct {
		name string
		fn   func(f *os.File) error
	}{
		{"labels.txt", func(f *os.File) error { return persist.LoadLabels(f, sh.space.Labels) }},
		{"comments.txt", func(f *os.File) error { return persist.LoadComments(f, sh.space.Comments) }},
		{"xrefs.txt", func(f *os.File) error { return persist.LoadXrefs(f, sh.space.Xrefs) }},
		{"argprops.txt", func(f *os.File) error { return persist.LoadArgProps(f, sh.space.ArgProps) }},
		{"areas.txt", func(f *os.File) error { return persist.LoadAreas(f, sh.space) }},
	}
	for _, r := range readers {
		if err := loadOne(filepath.Join(dir, r.name), r.fn); err != nil {
			return err
		}
	}
	return nil
}

func loadOne(path string, fn func(f *os.File) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
