// Package throttle paces writes to manifest sinks so that staging a bulk
// operation against slow destination media (tape, a saturated network
// mount) doesn't flood it. It is pure instrumentation: disabled (the zero
// rate), it adds no overhead and changes no output.
package throttle

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// chunkSize bounds a single pass through the limiter, the same chunking the
// teacher's bandwidth-limited response writer uses: small enough for smooth
// pacing, large enough to keep syscall overhead low.
const chunkSize = 32 * 1024

// Writer wraps w, pacing Write calls through a token-bucket limiter.
type Writer struct {
	w       io.Writer
	limiter *rate.Limiter
}

// NewLimiter returns a limiter capped at bytesPerSec, or nil when
// bytesPerSec <= 0 (unlimited). A single limiter is meant to be shared
// across every sink a run opens, so the cap holds for the run's total
// manifest-write throughput rather than resetting per file.
func NewLimiter(bytesPerSec float64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), chunkSize)
}

// WrapLimiter wraps w with an existing limiter (or returns w unchanged if
// lim is nil), letting multiple sinks share one rate budget.
func WrapLimiter(w io.Writer, lim *rate.Limiter) io.Writer {
	if lim == nil {
		return w
	}
	return &Writer{w: w, limiter: lim}
}

func (t *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := len(p)
		if n > chunkSize {
			n = chunkSize
		}
		if err := t.limiter.WaitN(context.Background(), n); err != nil {
			return total, err
		}
		written, err := t.w.Write(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}
