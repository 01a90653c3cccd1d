// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shell

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// settings holds the shell's user-tunable defaults. Fields are
// exported so reflection can enumerate them; the "doc" tag is shown
// by the set command.
type settings struct {
	DisasmLines    int    `doc:"default number of lines to disassemble"`
	ContextLines   int    `doc:"lines of backward context; stored only, no command reads it"`
	NextDisasmAddr uint32 `doc:"address of the next disassembly window"`
	AutoLabel      bool   `doc:"auto-label flag; stored only, analysis creates no labels"`
}

func newSettings() *settings {
	return &settings{
		DisasmLines:    20,
		ContextLines:   4,
		NextDisasmAddr: 0,
		AutoLabel:      true,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	t := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, t.NumField())
	for i := 0; i < len(settingsFields); i++ {
		f := t.Field(i)
		doc, _ := f.Tag.Lookup("doc")
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   doc,
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

// Display writes every setting's current value and doc string to w.
func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		var rendered string
		switch f.kind {
		case reflect.Bool:
			rendered = fmt.Sprintf("    %-16s %v", f.name, v.Bool())
		case reflect.Uint32:
			rendered = fmt.Sprintf("    %-16s 0x%08x", f.name, uint32(v.Uint()))
		default:
			rendered = fmt.Sprintf("    %-16s %v", f.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", rendered, f.doc)
	}
}

// Kind returns the reflect.Kind of the setting named key, or
// reflect.Invalid if no such setting exists.
func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

// Set assigns value to the setting named key, converting it to the
// field's type if possible.
func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}

	vIn := reflect.ValueOf(value)
	if !vIn.Type().ConvertibleTo(f.typ) {
		return errors.New("invalid type")
	}

	vOut := reflect.ValueOf(s).Elem().Field(f.index)
	vOut.Set(vIn.Convert(f.typ))
	return nil
}
