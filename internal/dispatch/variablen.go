package dispatch

import (
	"fmt"

	"partforge/internal/partition"
	"partforge/internal/sizing"
)

// Callbacks lets a caller observe partition open/close events. Both are
// optional; a nil callback is a no-op. Returning a non-nil error from
// either aborts the run (used by the live-mode hook runner to propagate
// hook failures).
type Callbacks struct {
	BeforeOpen func(p *partition.Partition) error
	OnClose    func(p *partition.Partition) error
}

// VariableN streams entries into partitions bounded by MaxEntries and/or
// MaxSize, opening a new partition whenever the next entry would exceed a
// cap, and routing entries that can never fit into the uncapped overflow
// partition. Placement is strict input order — no sorting — which is what
// makes live-mode streaming possible.
type VariableN struct {
	acc        sizing.Accounting
	maxEntries int64 // 0 = unset
	maxSize    int64 // 0 = unset
	preload    int64
	cb         Callbacks

	current     *partition.Partition
	overflow    *partition.Partition
	nextOrdinal int
	closed      []*partition.Partition // retained only when the caller doesn't discard in OnClose
}

// NewVariableN returns a dispatcher with the given caps (0 = unset).
func NewVariableN(acc sizing.Accounting, maxEntries, maxSize, preload int64, cb Callbacks) *VariableN {
	return &VariableN{acc: acc, maxEntries: maxEntries, maxSize: maxSize, preload: preload, cb: cb}
}

// Place assigns one entry. entryIndex is the entry's index in the owning
// collection, used for Partition.Entries bookkeeping; it carries no meaning
// beyond that here.
func (d *VariableN) Place(entryIndex int, rawSize int64) error {
	eff := d.acc.Effective(rawSize)

	if d.maxSize > 0 && eff > d.maxSize {
		if d.overflow == nil {
			d.overflow = partition.New(overflowOrdinal, 0)
			if d.cb.BeforeOpen != nil {
				if err := d.cb.BeforeOpen(d.overflow); err != nil {
					return fmt.Errorf("dispatch: overflow partition hook: %w", err)
				}
			}
		}
		d.overflow.Add(entryIndex, eff)
		return nil
	}

	if d.current == nil {
		if err := d.openNext(); err != nil {
			return err
		}
	} else if d.wouldExceed(eff) {
		if err := d.closeCurrent(); err != nil {
			return err
		}
		if err := d.openNext(); err != nil {
			return err
		}
	}

	d.current.Add(entryIndex, eff)
	return nil
}

func (d *VariableN) wouldExceed(eff int64) bool {
	if d.maxEntries > 0 && d.current.CurrentCount+1 > d.maxEntries {
		return true
	}
	if d.maxSize > 0 && d.current.CurrentSize+eff > d.maxSize {
		return true
	}
	return false
}

func (d *VariableN) openNext() error {
	p := partition.New(d.nextOrdinal, d.preload)
	d.nextOrdinal++
	if d.cb.BeforeOpen != nil {
		if err := d.cb.BeforeOpen(p); err != nil {
			return fmt.Errorf("dispatch: pre-partition hook: %w", err)
		}
	}
	d.current = p
	return nil
}

func (d *VariableN) closeCurrent() error {
	p := d.current
	d.current = nil
	if d.cb.OnClose != nil {
		if err := d.cb.OnClose(p); err != nil {
			return fmt.Errorf("dispatch: post-partition hook: %w", err)
		}
	} else {
		d.closed = append(d.closed, p)
	}
	return nil
}

// overflowOrdinal is a placeholder ordinal for the overflow partition; it is
// renumbered to the highest ordinal at Finish time, once every bounded
// partition's final ordinal is known.
const overflowOrdinal = -2

// Finish closes the current open partition (if any) and the overflow
// partition (if one was used), renumbers the overflow partition to
// max_ordinal+1, and returns every partition in final emission order
// (bounded partitions first, overflow last). Callers that supplied OnClose
// receive every partition through that callback instead, the renumbered
// overflow partition last, and Finish then returns an empty slice.
func (d *VariableN) Finish() ([]*partition.Partition, error) {
	if d.current != nil {
		if err := d.closeCurrent(); err != nil {
			return nil, err
		}
	}

	result := d.closed
	d.closed = nil

	if d.overflow != nil {
		d.overflow.Index = d.nextOrdinal
		if d.cb.OnClose != nil {
			if err := d.cb.OnClose(d.overflow); err != nil {
				return nil, fmt.Errorf("dispatch: overflow post-partition hook: %w", err)
			}
		} else {
			result = append(result, d.overflow)
		}
	}

	return result, nil
}

// Count returns the number of partitions created so far, including the
// overflow partition if one was opened. Matches the "returns the number of
// partitions created" contract from spec.md §4.4.
func (d *VariableN) Count() int {
	n := d.nextOrdinal
	if d.overflow != nil {
		n++
	}
	return n
}
