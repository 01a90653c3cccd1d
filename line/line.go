// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package line implements the display object variants the rendering
// model produces: one object per instruction, data unit, string,
// unknown byte, label, xref, or area-delimiter literal. It
// generalizes the disassembler's single formatted-line type into a
// tagged sum sharing address/size/sub-line fields.
package line

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/proc"
)

// Kind identifies which display variant an Object holds.
type Kind byte

// Recognized display object kinds.
const (
	KindInstruction Kind = iota
	KindData
	KindString
	KindUnknown
	KindLabel
	KindXref
	KindLiteral
)

var kindNames = [...]string{"Instruction", "Data", "String", "Unknown", "Label", "Xref", "Literal"}

// String returns the kind's name, used in debug output and tests.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// LeaderSize is the fixed width of the address leader a terminal UI
// prepends to every rendered line (not produced by Render itself).
const LeaderSize = 10

// Object is one display line. virtual is not a stored field — it is
// derived from Kind by IsVirtual, per the tagged-sum design: Label,
// Xref, and Literal are the virtual variants.
type Object struct {
	Kind  Kind
	Addr  uint32
	Size  int // 1 for virtual variants
	Subno int

	text     string // instruction/literal text, or label name
	comment  string // instruction's optional trailing comment
	value    uint32 // data value, or xref source address
	bytes    []byte // string contents, or the single unknown byte
	operands []proc.Operand
	xrefTag  anno.XrefTag

	cache  string
	cached bool
}

// NewInstruction creates an Instruction object from the processor's
// rendered disasm text and decoded operands, with an optional
// trailing user comment.
func NewInstruction(addr uint32, size int, disasm, comment string, operands []proc.Operand) *Object {
	return &Object{Kind: KindInstruction, Addr: addr, Size: size, text: disasm, comment: comment, operands: operands}
}

// NewData creates a Data object. label, if non-empty, is used instead
// of the raw hex value (the caller supplies it precisely when
// operand 0 carries type o_mem).
func NewData(addr uint32, size int, value uint32, label string) *Object {
	return &Object{Kind: KindData, Addr: addr, Size: size, value: value, text: label}
}

// NewString creates a String object from the raw byte content.
func NewString(addr uint32, content []byte) *Object {
	return &Object{Kind: KindString, Addr: addr, Size: len(content), bytes: content}
}

// NewUnknown creates an Unknown object for a single undefined byte.
func NewUnknown(addr uint32, b byte) *Object {
	return &Object{Kind: KindUnknown, Addr: addr, Size: 1, bytes: []byte{b}}
}

// NewLabel creates a virtual Label object.
func NewLabel(addr uint32, name string) *Object {
	return &Object{Kind: KindLabel, Addr: addr, Size: 1, text: name}
}

// NewXref creates a virtual Xref object.
func NewXref(addr, from uint32, tag anno.XrefTag) *Object {
	return &Object{Kind: KindXref, Addr: addr, Size: 1, value: from, xrefTag: tag}
}

// NewLiteral creates a virtual Literal object from opaque pre-formatted
// text, used for area delimiters.
func NewLiteral(addr uint32, text string) *Object {
	return &Object{Kind: KindLiteral, Addr: addr, Size: 1, text: text}
}

// IsVirtual reports whether this object's kind is one of the three
// variants with no corresponding byte content: Label, Xref, Literal.
func (o *Object) IsVirtual() bool {
	switch o.Kind {
	case KindLabel, KindXref, KindLiteral:
		return true
	default:
		return false
	}
}

func dataMnemonic(size int) string {
	switch size {
	case 2:
		return "dw"
	case 4:
		return "dd"
	default:
		return "db"
	}
}

// Render formats the object's text, computing it once and caching the
// result.
func (o *Object) Render() string {
	if o.cached {
		return o.cache
	}
	o.cache = o.render()
	o.cached = true
	return o.cache
}

func (o *Object) render() string {
	switch o.Kind {
	case KindInstruction:
		if o.comment != "" {
			return fmt.Sprintf("%s  ; %s", o.text, o.comment)
		}
		return o.text
	case KindData:
		if o.text != "" {
			return fmt.Sprintf("%s %s", dataMnemonic(o.Size), o.text)
		}
		return fmt.Sprintf("%s 0x%08x", dataMnemonic(o.Size), o.value)
	case KindString:
		var sb strings.Builder
		sb.WriteString(`db "`)
		for _, b := range o.bytes {
			if b == 0 {
				sb.WriteString(`\0`)
			} else {
				sb.WriteByte(b)
			}
		}
		sb.WriteString(`"`)
		return sb.String()
	case KindUnknown:
		b := o.bytes[0]
		s := fmt.Sprintf("unk 0x%02x", b)
		if unicode.IsPrint(rune(b)) && b < 0x80 {
			s += fmt.Sprintf("  ; '%c'", b)
		}
		return s
	case KindLabel:
		return o.text + ":"
	case KindXref:
		return fmt.Sprintf("; xref: 0x%08x %c", o.value, byte(o.xrefTag))
	case KindLiteral:
		return o.text
	default:
		return ""
	}
}

// GetOperandAddr returns the most address-like operand for a "follow
// reference" UI action: for instructions, the first ONear operand
// wins, then the first OMem, then the first OImm; for data, a
// synthetic immediate carrying the value; for xref, the source
// address; other variants have none.
func (o *Object) GetOperandAddr() (uint32, bool) {
	switch o.Kind {
	case KindInstruction:
		for _, t := range [...]proc.OperandType{proc.ONear, proc.OMem, proc.OImm} {
			for _, op := range o.operands {
				if op.Type == t {
					return op.Value, true
				}
			}
		}
		return 0, false
	case KindData:
		return o.value, true
	case KindXref:
		return o.value, true
	default:
		return 0, false
	}
}

// Width returns the display width of the line: the fixed address
// leader plus indentWidth (0 for the virtual Label/Xref variants)
// plus the rendered text length.
func (o *Object) Width(indentWidth int) int {
	ind := indentWidth
	if o.Kind == KindLabel || o.Kind == KindXref {
		ind = 0
	}
	return LeaderSize + ind + len(o.Render())
}
