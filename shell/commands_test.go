package shell

import (
	"strings"
	"testing"

	"github.com/beevik/discore/proc/toy"
	"github.com/beevik/discore/space"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	sh, _ := newTestShell()
	sh.space.AddArea(0, 0xF, "")
	sh.space.Labels.SetLabel(0x4, "start")
	sh.space.Comments.Set(0x4, "entry point")

	dir := t.TempDir()
	if err := sh.processCommand("save " + dir); err != nil {
		t.Fatalf("save error = %v", err)
	}

	s2 := space.New()
	s2.AddArea(0, 0xF, "")
	sh2 := New(s2, toy.New(), nil)

	if err := sh2.OpenProject(dir); err != nil {
		t.Fatalf("OpenProject() error = %v", err)
	}
	if name, ok := s2.GetLabel(0x4); !ok || name != "start" {
		t.Fatalf("GetLabel(0x4) = %q, %v; want start, true", name, ok)
	}
	if text, ok := s2.Comments.Get(0x4); !ok || text != "entry point" {
		t.Fatalf("Comments.Get(0x4) = %q, %v; want \"entry point\", true", text, ok)
	}
}

func TestArgPropRoundTrip(t *testing.T) {
	sh, out := newTestShell()
	sh.space.AddArea(0, 0xF, "")

	if err := sh.processCommand("argprop 0 0 type o_mem"); err != nil {
		t.Fatalf("argprop set error = %v", err)
	}
	out.Reset()
	if err := sh.processCommand("argprop 0 0 type"); err != nil {
		t.Fatalf("argprop get error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "o_mem" {
		t.Fatalf("argprop get = %q; want o_mem", out.String())
	}
}

func TestSetDisplaysAndChangesSettings(t *testing.T) {
	sh, out := newTestShell()

	if err := sh.processCommand("set"); err != nil {
		t.Fatalf("set error = %v", err)
	}
	if !strings.Contains(out.String(), "DisasmLines") {
		t.Fatalf("output = %q; want mention of DisasmLines", out.String())
	}

	if err := sh.processCommand("set disasmlines 5"); err != nil {
		t.Fatalf("set disasmlines error = %v", err)
	}
	if sh.settings.DisasmLines != 5 {
		t.Fatalf("DisasmLines = %d; want 5", sh.settings.DisasmLines)
	}
}

func TestHelpListsCommands(t *testing.T) {
	sh, out := newTestShell()
	if err := sh.processCommand("help"); err != nil {
		t.Fatalf("help error = %v", err)
	}
	if !strings.Contains(out.String(), "disasm") {
		t.Fatalf("output = %q; want the disasm command listed", out.String())
	}
}
