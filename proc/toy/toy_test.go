package toy

import (
	"testing"

	"github.com/beevik/discore/anno"
	"github.com/beevik/discore/proc"
	"github.com/beevik/discore/space"
)

func TestAnaCall(t *testing.T) {
	s := space.New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{OpCall, 0x05, 0x00, 0x00, 0x00, OpRet})

	p := New()
	var cmd proc.Cmd
	cmd.Addr = 0

	n := p.Ana(s, &cmd)
	if n != 5 {
		t.Fatalf("Ana() = %d; want 5", n)
	}
	if cmd.Operand[0].Value != 5 {
		t.Fatalf("Operand[0].Value = %#x; want 0x5", cmd.Operand[0].Value)
	}
}

func TestEmuCallRecordsXrefAndPushes(t *testing.T) {
	s := space.New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{OpCall, 0x05, 0x00, 0x00, 0x00, OpRet})

	p := New()
	var cmd proc.Cmd
	cmd.Addr = 0
	p.Ana(s, &cmd)

	var pushed []uint32
	ok := p.Emu(s, &cmd, func(addr uint32) { pushed = append(pushed, addr) })
	if !ok {
		t.Fatal("Emu() = false; want true")
	}
	// the call target (0x5) and the fall-through address (cmd.Addr+5)
	// coincide in this byte layout, since ret immediately follows call.
	if len(pushed) != 2 || pushed[0] != 5 || pushed[1] != 5 {
		t.Fatalf("pushed = %v; want [5 5]", pushed)
	}
	xrefs := s.Xrefs.Get(5)
	if tag, ok := xrefs[0]; !ok || tag != anno.XrefCall {
		t.Fatalf("Xrefs.Get(5)[0] = %v, %v; want XrefCall, true", tag, ok)
	}
}

func TestAnaRet(t *testing.T) {
	s := space.New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{OpRet})

	p := New()
	var cmd proc.Cmd
	cmd.Addr = 0
	if n := p.Ana(s, &cmd); n != 1 {
		t.Fatalf("Ana() = %d; want 1", n)
	}
}

func TestAnaUnknownOpcode(t *testing.T) {
	s := space.New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{0xFF})

	p := New()
	var cmd proc.Cmd
	cmd.Addr = 0
	if n := p.Ana(s, &cmd); n != 0 {
		t.Fatalf("Ana() = %d; want 0", n)
	}
}
