// Package report prints a human-readable summary of a completed run.
package report

import (
	"container/heap"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"partforge/internal/fsentry"
	"partforge/internal/partition"
)

// Summary writes one line per partition (ordinal, entry count, total size)
// to w, in the teacher's tabwriter-aligned style.
func Summary(w io.Writer, parts []*partition.Partition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tFILES\tSIZE")
	for _, p := range parts {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", p.Index, p.CurrentCount, humanize.Bytes(uint64(p.CurrentSize)))
	}
	return tw.Flush()
}

// entrySize pairs an entry index with its raw size, the unit tracked by the
// top-K heap below.
type entrySize struct {
	index int
	size  int64
}

// topKHeap is a min-heap on size, bounded at k entries: pushing past
// capacity evicts the smallest, leaving the k largest seen so far.
type topKHeap []entrySize

func (h topKHeap) Len() int            { return len(h) }
func (h topKHeap) Less(i, j int) bool  { return h[i].size < h[j].size }
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x any)         { *h = append(*h, x.(entrySize)) }
func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK returns the indices of the k largest entries in col by raw size,
// largest first. Runs in O(n log k) instead of sorting the whole
// collection, the same bounded min-heap shape used elsewhere in this
// codebase for least-loaded partition selection.
func TopK(col *fsentry.Collection, k int) []int {
	if k <= 0 {
		return nil
	}
	h := make(topKHeap, 0, k)
	for i, e := range col.All() {
		if h.Len() < k {
			heap.Push(&h, entrySize{index: i, size: e.Size})
			continue
		}
		if e.Size > h[0].size {
			heap.Pop(&h)
			heap.Push(&h, entrySize{index: i, size: e.Size})
		}
	}

	out := make([]int, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(entrySize).index
	}
	return out
}

// TopKTable writes the k largest entries in col to w, largest first. Synthetic
// entries (from the crawler's directory policies) are marked "(dir)" since
// their size is an aggregate over a subtree, not one file's size, and
// comparing them against real files unmarked would be misleading.
func TopKTable(w io.Writer, col *fsentry.Collection, k int) error {
	indices := TopK(col, k)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SIZE\tPATH")
	for _, idx := range indices {
		e := col.At(idx)
		path := e.Path
		if e.Synthetic {
			path += " (dir)"
		}
		fmt.Fprintf(tw, "%s\t%s\n", humanize.Bytes(uint64(e.Size)), path)
	}
	return tw.Flush()
}
