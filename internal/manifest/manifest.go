// Package manifest materializes partition entry lists to output sinks:
// either a single combined stream or one file per partition ordinal.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"partforge/internal/fsentry"
	"partforge/internal/partition"
	"partforge/internal/throttle"
)

// Emitter writes partitions to their configured sinks. A zero-value
// Emitter with an empty Template writes everything to stdout.
type Emitter struct {
	Template string // "" or "-" = single combined sink (stdout)
	AddSlash bool
	Limiter  *rate.Limiter // shared across every sink this emitter opens; nil = unthrottled

	stdout *bufio.Writer
}

// Single reports whether this emitter writes one combined sink rather than
// per-partition files.
func (e *Emitter) Single() bool { return e.Template == "" || e.Template == "-" }

// EmitPartition writes one partition's entries to its sink, in partition
// order. In single-sink mode every call appends to the same stdout stream,
// one line per entry prefixed by the partition ordinal; in templated mode a
// fresh file T.<ordinal> is created, written, and closed.
func (e *Emitter) EmitPartition(p *partition.Partition, col *fsentry.Collection) error {
	if e.Single() {
		if e.stdout == nil {
			e.stdout = bufio.NewWriter(throttle.WrapLimiter(os.Stdout, e.Limiter))
		}
		for _, idx := range p.Entries {
			if err := writeLine(e.stdout, col.At(idx), e.AddSlash, p.Index); err != nil {
				return err
			}
		}
		return e.stdout.Flush()
	}

	name := fmt.Sprintf("%s.%d", e.Template, p.Index)
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("manifest: create %q: %w", name, err)
	}
	defer f.Close()

	w := bufio.NewWriter(throttle.WrapLimiter(f, e.Limiter))
	for _, idx := range p.Entries {
		if err := writeLine(w, col.At(idx), e.AddSlash, -1); err != nil {
			return err
		}
	}
	return w.Flush()
}

// EmitAll writes every partition in order — the non-live, non-streaming
// path where all partitions are already materialized in memory.
func (e *Emitter) EmitAll(parts []*partition.Partition, col *fsentry.Collection) error {
	for _, p := range parts {
		if err := e.EmitPartition(p, col); err != nil {
			return err
		}
	}
	return nil
}

// writeLine writes one manifest line. ordinal >= 0 prefixes the line with
// the partition number (single-sink mode); ordinal < 0 omits it (templated
// per-partition files, where the ordinal is already encoded in the
// filename).
func writeLine(w io.Writer, e *fsentry.Entry, addSlash bool, ordinal int) error {
	path := e.Path
	if addSlash && e.IsDir {
		path += "/"
	}
	var err error
	if ordinal >= 0 {
		_, err = fmt.Fprintf(w, "%d %s\n", ordinal, path)
	} else {
		_, err = fmt.Fprintf(w, "%s\n", path)
	}
	return err
}
