package report

import (
	"bytes"
	"strings"
	"testing"

	"partforge/internal/fsentry"
	"partforge/internal/partition"
)

func TestSummaryFormatsEachPartition(t *testing.T) {
	p0 := partition.New(0, 0)
	p0.Add(1, 100)
	p0.Add(2, 50)
	p1 := partition.New(1, 0)
	p1.Add(3, 10)

	var buf bytes.Buffer
	if err := Summary(&buf, []*partition.Partition{p0, p1}); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "PART") || !strings.Contains(out, "FILES") {
		t.Fatalf("missing header: %q", out)
	}
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("want header + 2 partition rows, got:\n%s", out)
	}
}

func TestTopKReturnsLargestFirst(t *testing.T) {
	col := fsentry.NewCollection(0)
	sizes := []int64{10, 500, 20, 300, 1}
	for i, s := range sizes {
		col.Append(fsentry.New(string(rune('a'+i)), s, false))
	}

	got := TopK(col, 2)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if col.At(got[0]).Size != 500 || col.At(got[1]).Size != 300 {
		t.Fatalf("got sizes %d, %d; want 500, 300", col.At(got[0]).Size, col.At(got[1]).Size)
	}
}

func TestTopKZeroReturnsNil(t *testing.T) {
	col := fsentry.NewCollection(0)
	col.Append(fsentry.New("a", 1, false))
	if got := TopK(col, 0); got != nil {
		t.Fatalf("TopK(col, 0) = %v, want nil", got)
	}
}

func TestTopKLargerThanCollection(t *testing.T) {
	col := fsentry.NewCollection(0)
	col.Append(fsentry.New("a", 1, false))
	col.Append(fsentry.New("b", 2, false))

	got := TopK(col, 10)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (bounded by collection size)", len(got))
	}
}
