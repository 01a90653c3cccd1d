package render

import (
	"testing"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/line"
	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/space"
)

// nopProcessor never recognizes an opcode, so every CODE-flagged byte
// falls back to an Unknown render, keeping these tests independent of
// proc/toy's concrete instruction semantics.
type nopProcessor struct{}

func (nopProcessor) Ana(*space.AddressSpace, *proc.Cmd) int          { return 0 }
func (nopProcessor) Emu(*space.AddressSpace, *proc.Cmd, func(uint32)) bool { return true }
func (nopProcessor) Out(*space.AddressSpace, *proc.Cmd)              {}

func kindsOf(lines []*line.Object) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Kind.String()
	}
	return out
}

// scenario 5: render window with xrefs and label.
func TestRenderPartialXrefsAndLabel(t *testing.T) {
	s := space.New()
	s.AddArea(0, 3, "")
	s.Labels.MakeAutoLabel(1)
	s.Xrefs.Add(3, 1, anno.XrefJump)

	m, err := RenderPartial(s, nopProcessor{}, 0, 0, 100, nil)
	if err != nil {
		t.Fatalf("RenderPartial() error = %v", err)
	}

	want := []string{
		"Literal", // Start of area
		"Unknown", // addr 0
		"Xref",    // at addr 1, from 3
		"Label",   // at addr 1
		"Unknown", // real object at addr 1
		"Unknown", // addr 2
		"Unknown", // addr 3
		"Literal", // End of area
	}
	got := kindsOf(m.Lines)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v; want %v", got, want)
		}
	}

	idx, ok := m.RealLineAt(1)
	if !ok {
		t.Fatal("RealLineAt(1) not found")
	}
	if m.Lines[idx].Kind != line.KindUnknown {
		t.Fatalf("RealLineAt(1) kind = %v; want Unknown", m.Lines[idx].Kind)
	}
}

func TestRenderPartialAroundClampsToAreaStart(t *testing.T) {
	s := space.New()
	s.AddArea(0x100, 0x1FF, "")

	m, err := RenderPartialAround(s, nopProcessor{}, 0x100, 0, 4)
	if err != nil {
		t.Fatalf("RenderPartialAround() error = %v", err)
	}
	if m.TargetLineFirst < 0 {
		t.Fatal("TargetLineFirst not latched")
	}
	if m.Lines[0].Kind != line.KindLiteral {
		t.Fatalf("Lines[0].Kind = %v; want Literal (start-of-area delimiter)", m.Lines[0].Kind)
	}
	if m.TargetLineSubno < 0 {
		t.Fatal("TargetLineSubno not latched or fallen back")
	}
}

func TestRenderPartialDeterministic(t *testing.T) {
	s := space.New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{1, 2, 3, 4})

	m1, _ := RenderPartial(s, nopProcessor{}, 0, 0, 10, nil)
	m2, _ := RenderPartial(s, nopProcessor{}, 0, 0, 10, nil)

	if len(m1.Lines) != len(m2.Lines) {
		t.Fatalf("non-deterministic line count: %d vs %d", len(m1.Lines), len(m2.Lines))
	}
	for i := range m1.Lines {
		if m1.Lines[i].Render() != m2.Lines[i].Render() {
			t.Fatalf("non-deterministic render at line %d", i)
		}
	}
}
