package partition

import "testing"

func TestNewPreload(t *testing.T) {
	p := New(2, 4096)
	if p.CurrentSize != 4096 || p.Preload() != 4096 || p.Index != 2 {
		t.Fatalf("New(2, 4096) = %+v", p)
	}
}

func TestAddAccumulates(t *testing.T) {
	p := New(0, 0)
	p.Add(5, 100)
	p.Add(6, 50)
	if p.CurrentSize != 150 || p.CurrentCount != 2 {
		t.Fatalf("after two Adds: size=%d count=%d, want 150, 2", p.CurrentSize, p.CurrentCount)
	}
	if len(p.Entries) != 2 || p.Entries[0] != 5 || p.Entries[1] != 6 {
		t.Fatalf("Entries = %v, want [5 6]", p.Entries)
	}
}

func TestResetReturnsToPreload(t *testing.T) {
	p := New(3, 10)
	p.Add(0, 90)
	p.Reset()
	if p.CurrentSize != 10 || p.CurrentCount != 0 || p.Entries != nil {
		t.Fatalf("after Reset: %+v, want size=10 count=0 entries=nil", p)
	}
	if p.Index != 3 {
		t.Fatalf("Reset must not touch Index, got %d", p.Index)
	}
}
