// Package dispatch implements the two placement algorithms: fixed-N
// balanced bin packing (LPT) and variable-N bounded first-fit with
// overflow.
package dispatch

import (
	"container/heap"
	"sort"

	"partforge/internal/fsentry"
	"partforge/internal/partition"
	"partforge/internal/sizing"
)

// partHeap is a min-heap of partitions keyed on CurrentSize, tie-broken by
// the smallest index — the binary heap prescribed by the design notes in
// place of a linear scan for the least-loaded partition.
type partHeap []*partition.Partition

func (h partHeap) Len() int { return len(h) }
func (h partHeap) Less(i, j int) bool {
	if h[i].CurrentSize != h[j].CurrentSize {
		return h[i].CurrentSize < h[j].CurrentSize
	}
	return h[i].Index < h[j].Index
}
func (h partHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *partHeap) Push(x any)   { *h = append(*h, x.(*partition.Partition)) }
func (h *partHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// FixedN places every entry in col into exactly numParts partitions using
// the longest-processing-time-first heuristic: entries with raw size > 0
// are sorted by effective size descending and placed least-loaded-first;
// zero-size entries are placed in a second pass so they cannot bias LPT.
func FixedN(col *fsentry.Collection, acc sizing.Accounting, numParts int, preload int64) []*partition.Partition {
	parts := make([]*partition.Partition, numParts)
	h := make(partHeap, numParts)
	for i := 0; i < numParts; i++ {
		p := partition.New(i, preload)
		parts[i] = p
		h[i] = p
	}
	heap.Init(&h)

	entries := col.All()

	var sized, empty []int
	for i, e := range entries {
		if e.Size > 0 {
			sized = append(sized, i)
		} else {
			empty = append(empty, i)
		}
	}

	effOf := func(idx int) int64 { return acc.Effective(entries[idx].Size) }
	sort.SliceStable(sized, func(i, j int) bool { return effOf(sized[i]) > effOf(sized[j]) })

	for _, idx := range sized {
		placeLeastLoaded(&h, col, idx, effOf(idx))
	}

	// Zero-size entries never change a partition's CurrentSize, so routing
	// them through the least-loaded heap would always return the same
	// lowest-index partition (its size ties are broken by index, not
	// count) and pile every empty entry onto partition 0. Round-robin by
	// ordinal instead, matching dispatch_empty_file_entries in the
	// original tool.
	for i, idx := range empty {
		p := parts[i%numParts]
		eff := effOf(idx)
		p.Add(idx, eff)
		col.At(idx).Assign(p.Index)
	}

	return parts
}

func placeLeastLoaded(h *partHeap, col *fsentry.Collection, entryIndex int, eff int64) {
	least := heap.Pop(h).(*partition.Partition)
	least.Add(entryIndex, eff)
	col.At(entryIndex).Assign(least.Index)
	heap.Push(h, least)
}
