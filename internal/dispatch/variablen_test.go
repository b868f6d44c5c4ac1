package dispatch

import (
	"testing"

	"partforge/internal/partition"
	"partforge/internal/sizing"
)

func TestVariableNSplitsOnMaxEntries(t *testing.T) {
	d := NewVariableN(sizing.Accounting{}, 2, 0, 0, Callbacks{})
	for i := 0; i < 5; i++ {
		if err := d.Place(i, 10); err != nil {
			t.Fatalf("Place(%d): %v", i, err)
		}
	}
	parts, err := d.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3 (ceil(5/2))", len(parts))
	}
	for i, p := range parts {
		if p.Index != i {
			t.Errorf("parts[%d].Index = %d, want %d", i, p.Index, i)
		}
	}
	if parts[2].CurrentCount != 1 {
		t.Fatalf("last partition count = %d, want 1", parts[2].CurrentCount)
	}
}

func TestVariableNSplitsOnMaxSize(t *testing.T) {
	d := NewVariableN(sizing.Accounting{}, 0, 100, 0, Callbacks{})
	sizes := []int64{60, 60, 60}
	for i, s := range sizes {
		if err := d.Place(i, s); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	parts, err := d.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3 (each 60 alone exceeds combining with another)", len(parts))
	}
}

func TestVariableNOverflowGetsHighestOrdinal(t *testing.T) {
	d := NewVariableN(sizing.Accounting{}, 0, 100, 0, Callbacks{})
	if err := d.Place(0, 10); err != nil {
		t.Fatal(err)
	}
	if err := d.Place(1, 1000); err != nil { // exceeds maxSize alone -> overflow
		t.Fatal(err)
	}
	parts, err := d.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(parts))
	}
	last := parts[len(parts)-1]
	for _, p := range parts {
		if p.Index > last.Index {
			t.Fatalf("overflow partition does not have the highest ordinal")
		}
	}
	if len(last.Entries) != 1 || last.Entries[0] != 1 {
		t.Fatalf("overflow partition entries = %v, want [1]", last.Entries)
	}
}

func TestVariableNCallbacksInvokedOnClose(t *testing.T) {
	var closed []*partition.Partition
	cb := Callbacks{
		OnClose: func(p *partition.Partition) error {
			closed = append(closed, p)
			return nil
		},
	}
	d := NewVariableN(sizing.Accounting{}, 1, 0, 0, cb)
	for i := 0; i < 3; i++ {
		if err := d.Place(i, 1); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(closed) != 3 {
		t.Fatalf("OnClose called %d times, want 3", len(closed))
	}
}

func TestVariableNCountIncludesOverflow(t *testing.T) {
	d := NewVariableN(sizing.Accounting{}, 0, 50, 0, Callbacks{})
	if err := d.Place(0, 500); err != nil {
		t.Fatal(err)
	}
	if d.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", d.Count())
	}
}
