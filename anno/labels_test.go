package anno

import "testing"

func kindOf(m map[uint32]Kind) func(uint32) Kind {
	return func(addr uint32) Kind {
		if k, ok := m[addr]; ok {
			return k
		}
		return KindUnknown
	}
}

func TestAutoLabelMaterialization(t *testing.T) {
	labels := NewLabelTable()
	labels.MakeAutoLabel(0x1234)

	kinds := map[uint32]Kind{0x1234: KindCode}
	s, ok := labels.Get(0x1234, kinds[0x1234])
	if !ok || s != "loc_00001234" {
		t.Fatalf("Get() = %q, %v; want loc_00001234, true", s, ok)
	}

	kinds[0x1234] = KindData
	s, ok = labels.Get(0x1234, kinds[0x1234])
	if !ok || s != "dat_00001234" {
		t.Fatalf("Get() = %q, %v; want dat_00001234, true", s, ok)
	}

	addr, ok := labels.Resolve("dat_00001234", kindOf(kinds))
	if !ok || addr != 0x1234 {
		t.Fatalf("Resolve() = %#x, %v; want 0x1234, true", addr, ok)
	}
}

func TestUniqueLabel(t *testing.T) {
	labels := NewLabelTable()
	labels.SetLabel(0xa, "foo")

	if got := labels.MakeUnique(0xb, "foo"); got != "foo_1" {
		t.Fatalf("MakeUnique(0xb) = %q; want foo_1", got)
	}
	if got := labels.MakeUnique(0xc, "foo"); got != "foo_2" {
		t.Fatalf("MakeUnique(0xc) = %q; want foo_2", got)
	}
}

func TestMakeLabelIdempotent(t *testing.T) {
	labels := NewLabelTable()
	labels.MakeLabel(1, "first")
	labels.MakeLabel(1, "second")

	s, _ := labels.Get(1, KindUnknown)
	if s != "first" {
		t.Fatalf("Get() = %q; want first (MakeLabel must be idempotent)", s)
	}
}

func TestSetLabelReplaces(t *testing.T) {
	labels := NewLabelTable()
	labels.SetLabel(1, "first")
	labels.SetLabel(1, "second")

	s, _ := labels.Get(1, KindUnknown)
	if s != "second" {
		t.Fatalf("Get() = %q; want second", s)
	}
	if _, ok := labels.byName["first"]; ok {
		t.Fatal("stale name \"first\" still resolves after SetLabel replaced it")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	labels := NewLabelTable()
	labels.SetLabel(0x42, "entry")

	s, ok := labels.Get(0x42, KindUnknown)
	if !ok {
		t.Fatal("Get() returned false")
	}
	addr, ok := labels.Resolve(s, kindOf(nil))
	if !ok || addr != 0x42 {
		t.Fatalf("Resolve(%q) = %#x, %v; want 0x42, true", s, addr, ok)
	}
}
