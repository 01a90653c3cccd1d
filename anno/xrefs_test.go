package anno

import "testing"

func TestXrefAddGetDel(t *testing.T) {
	xrefs := NewXrefTable()
	xrefs.Add(0x10, 0x20, XrefCall)

	got := xrefs.Get(0x20)
	if tag, ok := got[0x10]; !ok || tag != XrefCall {
		t.Fatalf("Get(0x20)[0x10] = %v, %v; want 'c', true", tag, ok)
	}

	xrefs.Del(0x10, 0x20, XrefCall)
	if got := xrefs.Get(0x20); len(got) != 0 {
		t.Fatalf("Get(0x20) after Del = %v; want empty", got)
	}
}

func TestXrefDelMismatchPanics(t *testing.T) {
	xrefs := NewXrefTable()
	xrefs.Add(0x10, 0x20, XrefCall)

	defer func() {
		if recover() == nil {
			t.Fatal("Del with wrong tag did not panic")
		}
	}()
	xrefs.Del(0x10, 0x20, XrefJump)
}

func TestXrefSourcesSorted(t *testing.T) {
	xrefs := NewXrefTable()
	xrefs.Add(0x30, 0x100, XrefJump)
	xrefs.Add(0x10, 0x100, XrefCall)
	xrefs.Add(0x20, 0x100, XrefRead)

	sources := xrefs.SourcesSorted(0x100)
	if len(sources) != 3 || sources[0].From != 0x10 || sources[1].From != 0x20 || sources[2].From != 0x30 {
		t.Fatalf("SourcesSorted() = %+v; want ascending by From", sources)
	}
}
