package space

import (
	"errors"
	"testing"
)

func TestLoadAndGetByte(t *testing.T) {
	s := New()
	s.AddArea(0x10, 0x1F, "")
	data := []byte{1, 2, 3, 4}
	if err := s.LoadContent(0x12, data); err != nil {
		t.Fatalf("LoadContent() error = %v", err)
	}
	for i, want := range data {
		got, err := s.GetByte(uint32(0x12 + i))
		if err != nil {
			t.Fatalf("GetByte(%#x) error = %v", 0x12+i, err)
		}
		if got != want {
			t.Fatalf("GetByte(%#x) = %#x; want %#x", 0x12+i, got, want)
		}
	}
}

func TestGetByteInvalidAddr(t *testing.T) {
	s := New()
	s.AddArea(0, 0xF, "")
	if _, err := s.GetByte(0x100); !errors.Is(err, ErrInvalidAddr) {
		t.Fatalf("GetByte(0x100) error = %v; want ErrInvalidAddr", err)
	}
}

func TestGetDataLittleEndian(t *testing.T) {
	s := New()
	s.AddArea(0, 0xF, "")
	s.LoadContent(0, []byte{0x34, 0x12, 0x00, 0x00})
	v, err := s.GetData(0, 2)
	if err != nil {
		t.Fatalf("GetData() error = %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("GetData() = %#x; want 0x1234", v)
	}
}

// scenario 2: unit navigation.
func TestUnitNavigation(t *testing.T) {
	s := New()
	area := s.AddArea(0, 9, "")
	if err := s.MakeData(2, 4); err != nil {
		t.Fatalf("MakeData() error = %v", err)
	}
	if n, err := s.GetUnitSize(2); err != nil || n != 4 {
		t.Fatalf("GetUnitSize(2) = %d, %v; want 4, nil", n, err)
	}
	if n, err := s.GetUnitSize(3); err != nil || n != 1 {
		t.Fatalf("GetUnitSize(3) = %d, %v; want 1, nil", n, err)
	}
	if off := AdjustOffsetReverse(4, area); off != 2 {
		t.Fatalf("AdjustOffsetReverse(4) = %d; want 2", off)
	}
}

func TestMakeCodeAndUndefined(t *testing.T) {
	s := New()
	s.AddArea(0, 9, "")
	if err := s.MakeCode(0, 5); err != nil {
		t.Fatalf("MakeCode() error = %v", err)
	}
	if n, _ := s.GetUnitSize(0); n != 5 {
		t.Fatalf("GetUnitSize(0) = %d; want 5", n)
	}
	for addr := uint32(1); addr < 5; addr++ {
		f, _ := s.GetFlags(addr)
		if f != CODE_CONT {
			t.Fatalf("GetFlags(%d) = %v; want CODE_CONT", addr, f)
		}
	}
	if err := s.MakeUndefined(0, 5); err != nil {
		t.Fatalf("MakeUndefined() error = %v", err)
	}
	for addr := uint32(0); addr < 5; addr++ {
		f, _ := s.GetFlags(addr)
		if f != UNK {
			t.Fatalf("GetFlags(%d) after MakeUndefined = %v; want UNK", addr, f)
		}
	}
}

func TestMakeCodePreservesOrthogonalBits(t *testing.T) {
	s := New()
	s.AddArea(0, 9, "")
	s.SetFlags(0, 1, UNK|0x80, UNK)
	if err := s.MakeCode(0, 2); err != nil {
		t.Fatalf("MakeCode() error = %v", err)
	}
	f, _ := s.GetFlags(0)
	if f&0x80 == 0 || f&CODE == 0 {
		t.Fatalf("GetFlags(0) = %#x; want orthogonal bit and CODE both set", f)
	}
}

// scenario 3: auto-label materialization through the address space,
// which supplies the kind classification anno.LabelTable needs.
func TestAutoLabelThroughSpace(t *testing.T) {
	s := New()
	s.AddArea(0x1000, 0x2000, "")
	s.MakeCode(0x1234, 1)
	s.Labels.MakeAutoLabel(0x1234)

	name, ok := s.GetLabel(0x1234)
	if !ok || name != "loc_00001234" {
		t.Fatalf("GetLabel() = %q, %v; want loc_00001234, true", name, ok)
	}

	s.MakeUndefined(0x1234, 1)
	s.MakeData(0x1234, 1)
	name, ok = s.GetLabel(0x1234)
	if !ok || name != "dat_00001234" {
		t.Fatalf("GetLabel() after MakeData = %q, %v; want dat_00001234, true", name, ok)
	}

	addr, ok := s.ResolveLabel("dat_00001234")
	if !ok || addr != 0x1234 {
		t.Fatalf("ResolveLabel() = %#x, %v; want 0x1234, true", addr, ok)
	}
}

func TestFindAreaCacheAndScan(t *testing.T) {
	s := New()
	s.AddArea(0, 0xF, "a")
	s.AddArea(0x100, 0x10F, "b")

	i, ok := s.FindAreaIndex(0x105)
	if !ok || i != 1 {
		t.Fatalf("FindAreaIndex(0x105) = %d, %v; want 1, true", i, ok)
	}
	i, ok = s.FindAreaIndex(0x5)
	if !ok || i != 0 {
		t.Fatalf("FindAreaIndex(0x5) = %d, %v; want 0, true", i, ok)
	}
}
