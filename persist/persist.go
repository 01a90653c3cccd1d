// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package persist implements the line-based ASCII text codec for
// labels, comments, operand properties, cross-references, and area
// flags. It generalizes the emulator core's binary SourceMap
// read/write pair into the plain-text, human-diffable format an
// interactive disassembler project needs.
package persist

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/space"
)

// ErrAreaMismatch is returned when a loaded area header does not
// match the in-memory area at the same position in add-order, or when
// its flag data length does not match that area's size: a fatal
// persistence inconsistency, not a recoverable user error.
var ErrAreaMismatch = errors.New("discore/persist: area header does not match loaded area")

// flagChunkSize is the number of flag bytes hex-encoded per line.
const flagChunkSize = 32

func formatAddr(addr uint32) string {
	return fmt.Sprintf("%08x", addr)
}

func parseAddr(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 16, 32)
	return uint32(n), err
}

// SaveLabels writes every label in labels, sorted by address, one per
// line: the bare address for an auto-label, or "<addr> <name>" for an
// explicit one.
func SaveLabels(w io.Writer, labels *anno.LabelTable) error {
	bw := bufio.NewWriter(w)
	for _, rec := range labels.All() {
		if rec.Auto {
			fmt.Fprintf(bw, "%s\n", formatAddr(rec.Addr))
		} else {
			fmt.Fprintf(bw, "%s %s\n", formatAddr(rec.Addr), rec.Name)
		}
	}
	return bw.Flush()
}

// LoadLabels reads a label file written by SaveLabels into labels.
func LoadLabels(r io.Reader, labels *anno.LabelTable) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		addrStr, name, hasName := strings.Cut(line, " ")
		addr, err := parseAddr(addrStr)
		if err != nil {
			return fmt.Errorf("discore/persist: labels: %w", err)
		}
		if hasName {
			labels.SetLabel(addr, name)
		} else {
			labels.MakeAutoLabel(addr)
		}
	}
	return sc.Err()
}

// SaveComments writes every comment, sorted by address, one per line
// as "<addr> <json-string>".
func SaveComments(w io.Writer, comments *anno.CommentTable) error {
	bw := bufio.NewWriter(w)
	for _, rec := range comments.All() {
		data, err := json.Marshal(rec.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%s %s\n", formatAddr(rec.Addr), data)
	}
	return bw.Flush()
}

// LoadComments reads a comment file written by SaveComments into
// comments.
func LoadComments(r io.Reader, comments *anno.CommentTable) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		addrStr, jsonStr, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("discore/persist: comments: malformed line %q", line)
		}
		addr, err := parseAddr(addrStr)
		if err != nil {
			return fmt.Errorf("discore/persist: comments: %w", err)
		}
		var text string
		if err := json.Unmarshal([]byte(jsonStr), &text); err != nil {
			return fmt.Errorf("discore/persist: comments: %w", err)
		}
		comments.Set(addr, text)
	}
	return sc.Err()
}

// SaveArgProps writes every address's operand properties, sorted, one
// per line as "<addr> <json-object>". JSON object keys are operand
// indices encoded as strings.
func SaveArgProps(w io.Writer, argProps *anno.ArgPropTable) error {
	bw := bufio.NewWriter(w)
	for _, rec := range argProps.All() {
		obj := make(map[string]map[string]any, len(rec.Props))
		for argno, props := range rec.Props {
			obj[strconv.Itoa(argno)] = props
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%s %s\n", formatAddr(rec.Addr), data)
	}
	return bw.Flush()
}

// LoadArgProps reads an operand-property file written by SaveArgProps
// into argProps, parsing JSON object keys back to integer operand
// indices.
func LoadArgProps(r io.Reader, argProps *anno.ArgPropTable) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		addrStr, jsonStr, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("discore/persist: arg-props: malformed line %q", line)
		}
		addr, err := parseAddr(addrStr)
		if err != nil {
			return fmt.Errorf("discore/persist: arg-props: %w", err)
		}
		var obj map[string]map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
			return fmt.Errorf("discore/persist: arg-props: %w", err)
		}
		for argnoStr, props := range obj {
			argno, err := strconv.Atoi(argnoStr)
			if err != nil {
				return fmt.Errorf("discore/persist: arg-props: bad operand index %q", argnoStr)
			}
			for name, value := range props {
				argProps.Set(addr, argno, name, value)
			}
		}
	}
	return sc.Err()
}

// SaveXrefs writes every target's xref record, sorted by target
// address, each as a target-address line, one "<from> <tag>" line per
// source sorted ascending, and a terminating blank line.
func SaveXrefs(w io.Writer, xrefs *anno.XrefTable) error {
	bw := bufio.NewWriter(w)
	for _, rec := range xrefs.All() {
		fmt.Fprintf(bw, "%s\n", formatAddr(rec.To))
		for _, src := range rec.Sources {
			fmt.Fprintf(bw, "%s %c\n", formatAddr(src.From), byte(src.Tag))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// LoadXrefs reads an xref file written by SaveXrefs into xrefs.
func LoadXrefs(r io.Reader, xrefs *anno.XrefTable) error {
	sc := bufio.NewScanner(r)
	var target uint32
	haveTarget := false
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			haveTarget = false
			continue
		}
		addrStr, rest, hasSpace := strings.Cut(line, " ")
		if !hasSpace {
			addr, err := parseAddr(addrStr)
			if err != nil {
				return fmt.Errorf("discore/persist: xrefs: %w", err)
			}
			target = addr
			haveTarget = true
			continue
		}
		if !haveTarget {
			return fmt.Errorf("discore/persist: xrefs: source line %q without a target", line)
		}
		from, err := parseAddr(addrStr)
		if err != nil {
			return fmt.Errorf("discore/persist: xrefs: %w", err)
		}
		if len(rest) != 1 {
			return fmt.Errorf("discore/persist: xrefs: malformed tag %q", rest)
		}
		xrefs.Add(from, target, anno.XrefTag(rest[0]))
	}
	return sc.Err()
}

// SaveAreas writes every area's (start, end) header, its flag buffer
// hex-encoded in flagChunkSize-byte chunks, and a terminating blank
// line, in area add-order.
func SaveAreas(w io.Writer, s *space.AddressSpace) error {
	bw := bufio.NewWriter(w)
	for _, a := range s.Areas() {
		fmt.Fprintf(bw, "%s %s\n", formatAddr(a.Start), formatAddr(a.End))
		flags := a.FlagBytes()
		for off := 0; off < len(flags); off += flagChunkSize {
			end := off + flagChunkSize
			if end > len(flags) {
				end = len(flags)
			}
			fmt.Fprintln(bw, hex.EncodeToString(flags[off:end]))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// LoadAreas reads an area/flag file written by SaveAreas, restoring
// flags onto the areas already present in s (created at load time by
// the caller). It fails with ErrAreaMismatch if a header's (start,
// end) does not match the corresponding in-memory area.
func LoadAreas(r io.Reader, s *space.AddressSpace) error {
	areas := s.Areas()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	areaIndex := 0
	for sc.Scan() {
		header := sc.Text()
		if header == "" {
			continue
		}
		startStr, endStr, ok := strings.Cut(header, " ")
		if !ok {
			return fmt.Errorf("discore/persist: areas: malformed header %q", header)
		}
		start, err := parseAddr(startStr)
		if err != nil {
			return fmt.Errorf("discore/persist: areas: %w", err)
		}
		end, err := parseAddr(endStr)
		if err != nil {
			return fmt.Errorf("discore/persist: areas: %w", err)
		}
		if areaIndex >= len(areas) || areas[areaIndex].Start != start || areas[areaIndex].End != end {
			return fmt.Errorf("%w: %#08x-%#08x", ErrAreaMismatch, start, end)
		}
		area := areas[areaIndex]
		areaIndex++

		var hexChunks []string
		for sc.Scan() {
			chunk := sc.Text()
			if chunk == "" {
				break
			}
			hexChunks = append(hexChunks, chunk)
		}
		data, err := hex.DecodeString(strings.Join(hexChunks, ""))
		if err != nil {
			return fmt.Errorf("discore/persist: areas: %w", err)
		}
		if err := area.SetFlagBytes(data); err != nil {
			return fmt.Errorf("%w: %v", ErrAreaMismatch, err)
		}
	}
	return sc.Err()
}

func dumpChar(f byte) byte {
	switch space.Flag(f) {
	case space.UNK:
		return '.'
	case space.CODE:
		return 'C'
	case space.CODE_CONT:
		return 'c'
	case space.DATA:
		return 'D'
	case space.DATA_CONT:
		return 'd'
	default:
		return 'X'
	}
}

// dumpLineWidth is the number of bytes summarized per debug dump line.
const dumpLineWidth = 128

// DumpFlags writes a compact per-byte flag classification dump of
// area: one line of up to dumpLineWidth characters prefixed by its
// starting address, using ". C c D d X" for UNK, CODE, CODE_CONT,
// DATA, DATA_CONT, and anything else.
func DumpFlags(w io.Writer, area *space.Area) error {
	bw := bufio.NewWriter(w)
	flags := area.FlagBytes()
	for off := 0; off < len(flags); off += dumpLineWidth {
		end := off + dumpLineWidth
		if end > len(flags) {
			end = len(flags)
		}
		line := make([]byte, end-off)
		for i, f := range flags[off:end] {
			line[i] = dumpChar(f)
		}
		fmt.Fprintf(bw, "%s %s\n", formatAddr(area.Start+uint32(off)), line)
	}
	return bw.Flush()
}
