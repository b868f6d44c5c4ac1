// Package engine wires the crawler, dispatcher, manifest emitter, live-mode
// hook controller, run ledger, and report printer into the two run modes:
// batch (materialize, then dispatch) and live (stream, dispatch, flush).
package engine

import (
	"fmt"
	"io"
	"log"
	"time"

	"partforge/internal/config"
	"partforge/internal/crawl"
	"partforge/internal/dispatch"
	"partforge/internal/fsentry"
	"partforge/internal/history"
	"partforge/internal/hooks"
	"partforge/internal/input"
	"partforge/internal/manifest"
	"partforge/internal/partition"
	"partforge/internal/report"
	"partforge/internal/sizing"
	"partforge/internal/throttle"
)

// Result summarizes a completed run for the caller (main) and the ledger.
type Result struct {
	NumParts   int
	TotalFiles int64
	TotalSize  int64
	Duration   time.Duration
}

// Engine owns one run's shared state: options and logger. Each run mode
// creates its own collection for the crawled entries.
type Engine struct {
	opt    *config.Options
	logger *log.Logger
}

// New returns an Engine bound to opt, logging to logger.
func New(opt *config.Options, logger *log.Logger) *Engine {
	return &Engine{opt: opt, logger: logger}
}

// Run executes one full partitioning pass: crawl, dispatch, emit, report,
// and (best-effort) record to the run ledger.
func (e *Engine) Run(ledger *history.Ledger) (Result, error) {
	start := time.Now()

	acc := sizing.Accounting{Preload: e.opt.Preload, Overload: e.opt.Overload, Round: e.opt.Round}
	limiter := throttle.NewLimiter(e.opt.ThrottleBps)
	emitter := &manifest.Emitter{Template: e.opt.OutputTemplate, AddSlash: e.opt.AddSlash, Limiter: limiter}

	var (
		res Result
		err error
	)
	if e.opt.LiveMode {
		res, err = e.runLive(acc, emitter)
	} else {
		res, err = e.runBatch(acc, emitter)
	}
	res.Duration = time.Since(start)

	if ledger != nil {
		rec := history.Record{
			StartedAt:   start,
			Mode:        modeString(e.opt.Mode),
			Selector:    selectorString(e.opt),
			InputPath:   e.opt.InputPath,
			TotalFiles:  res.TotalFiles,
			TotalSize:   res.TotalSize,
			NumParts:    res.NumParts,
			Duration:    res.Duration,
			Live:        e.opt.LiveMode,
			Failed:      err != nil,
			FailMessage: errMessage(err),
		}
		if lerr := ledger.Insert(rec); lerr != nil {
			e.logger.Printf("history: %v", lerr)
		}
	}

	return res, err
}

// runBatch materializes every crawled entry before dispatching, the path
// used for fixed-N (which needs every size up front to balance bins) and
// for non-live variable-N.
func (e *Engine) runBatch(acc sizing.Accounting, emitter *manifest.Emitter) (Result, error) {
	col := fsentry.NewCollection(1024)

	if err := e.crawlInto(col); err != nil {
		return Result{}, err
	}

	if col.Len() == 0 {
		// No entries found is not an error: report zero and write nothing.
		return Result{}, nil
	}

	var parts []*partition.Partition
	switch e.opt.Mode {
	case config.ModeFixed:
		parts = dispatch.FixedN(col, acc, e.opt.NumParts, e.opt.Preload)
	case config.ModeVariable:
		d := dispatch.NewVariableN(acc, e.opt.MaxEntries, e.opt.MaxSize, e.opt.Preload, dispatch.Callbacks{})
		for i, ent := range col.All() {
			if err := d.Place(i, ent.Size); err != nil {
				return Result{}, err
			}
		}
		var err error
		parts, err = d.Finish()
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("engine: unknown mode %d", e.opt.Mode)
	}

	if err := emitter.EmitAll(parts, col); err != nil {
		return Result{}, err
	}

	if e.opt.Verbose > 0 {
		e.printReport(parts, col)
	}

	return Result{NumParts: len(parts), TotalFiles: int64(col.Len()), TotalSize: totalSize(parts)}, nil
}

// runLive streams entries straight through the variable-N dispatcher,
// running pre/post hooks and flushing each partition as soon as it closes,
// which releases that partition's index list. Every entry record stays in
// col for the whole run, so memory still grows with the total entry count.
func (e *Engine) runLive(acc sizing.Accounting, emitter *manifest.Emitter) (Result, error) {
	col := fsentry.NewCollection(256)
	runner := hooks.Runner{}

	var (
		totalFiles int64
		totalSz    int64
		emitErr    error
	)

	cb := dispatch.Callbacks{
		BeforeOpen: func(p *partition.Partition) error {
			if e.opt.PrePartHook == "" {
				return nil
			}
			return runner.Run(e.opt.PrePartHook, hooks.Env{
				PartNumber:   p.Index,
				PartSize:     p.CurrentSize, // equals preload at open time
				PartFilename: e.manifestFilename(p.Index),
			})
		},
		OnClose: func(p *partition.Partition) error {
			if err := emitter.EmitPartition(p, col); err != nil {
				emitErr = err
			}
			totalSz += p.CurrentSize

			errno := 0
			if emitErr != nil {
				errno = 1
			}

			if e.opt.PostPartHook != "" {
				if err := runner.Run(e.opt.PostPartHook, hooks.Env{
					PartNumber:   p.Index,
					PartSize:     p.CurrentSize,
					PartFilename: e.manifestFilename(p.Index),
					PartNumFiles: int(p.CurrentCount),
					PartErrno:    errno,
				}); err != nil {
					return err
				}
			}
			p.Reset()
			return emitErr
		},
	}

	d := dispatch.NewVariableN(acc, e.opt.MaxEntries, e.opt.MaxSize, e.opt.Preload, cb)

	var crawlErr error
	err := e.ingest(func(path string, size int64, isDir, synthetic bool) {
		if crawlErr != nil {
			return
		}
		ent := fsentry.New(path, size, isDir)
		ent.Synthetic = synthetic
		idx := col.Append(ent)
		totalFiles++
		if err := d.Place(idx, size); err != nil {
			crawlErr = err
		}
	})
	if err != nil {
		return Result{}, err
	}
	if crawlErr != nil {
		return Result{}, crawlErr
	}

	if _, err := d.Finish(); err != nil {
		return Result{}, err
	}
	if emitErr != nil {
		return Result{}, emitErr
	}

	return Result{NumParts: d.Count(), TotalFiles: totalFiles, TotalSize: totalSz}, nil
}

// crawlInto runs the crawler and appends every entry to col, for the batch
// path where the full entry set must exist before dispatching.
func (e *Engine) crawlInto(col *fsentry.Collection) error {
	return e.ingest(func(path string, size int64, isDir, synthetic bool) {
		ent := fsentry.New(path, size, isDir)
		ent.Synthetic = synthetic
		col.Append(ent)
	})
}

// ingest reads the input source (a file of lines, or stdin) named by
// InputPath and feeds emit with one call per entry. With Arbitrary set,
// each line is a "<size> <path>" tuple taken as a literal entry; otherwise
// each line names a root that gets crawled, preserving "crawl order within
// a root, argument order across roots".
func (e *Engine) ingest(emit crawl.Emit) error {
	r, err := input.Open(e.opt.InputPath)
	if err != nil {
		return err
	}
	defer r.Close()

	lines, err := input.Lines(r)
	if err != nil {
		return err
	}

	if e.opt.Arbitrary {
		for _, line := range lines {
			size, path, perr := crawl.ParseArbitraryLine(line)
			if perr != nil {
				e.logger.Printf("input: %v", perr)
				continue
			}
			emit(path, size, false, false)
		}
		return nil
	}

	c := crawl.New(e.opt, emit, nil)
	for _, root := range lines {
		if err := c.Walk(root); err != nil {
			return err
		}
	}
	return nil
}

// manifestFilename returns the sink name a hook should see for partition
// ordinal i: "-" for the single combined stdout sink, or "T.i" for
// templated output.
func (e *Engine) manifestFilename(i int) string {
	if e.opt.OutputTemplate == "" || e.opt.OutputTemplate == "-" {
		return "-"
	}
	return fmt.Sprintf("%s.%d", e.opt.OutputTemplate, i)
}

func (e *Engine) printReport(parts []*partition.Partition, col *fsentry.Collection) {
	var w io.Writer = logWriter{e.logger}
	if err := report.Summary(w, parts); err != nil {
		e.logger.Printf("report: %v", err)
	}
	if e.opt.Verbose > 1 && e.opt.ReportTopK > 0 {
		if err := report.TopKTable(w, col, e.opt.ReportTopK); err != nil {
			e.logger.Printf("report: %v", err)
		}
	}
}

// logWriter adapts *log.Logger to io.Writer so report tables can share the
// engine's configured logger instead of writing to stderr directly.
type logWriter struct{ l *log.Logger }

func (w logWriter) Write(p []byte) (int, error) {
	w.l.Print(string(p))
	return len(p), nil
}

func totalSize(parts []*partition.Partition) int64 {
	var total int64
	for _, p := range parts {
		total += p.CurrentSize
	}
	return total
}

func modeString(m config.Mode) string {
	if m == config.ModeFixed {
		return "fixed"
	}
	return "variable"
}

func selectorString(o *config.Options) string {
	switch o.Mode {
	case config.ModeFixed:
		return fmt.Sprintf("n=%d", o.NumParts)
	default:
		return fmt.Sprintf("f=%d,s=%d", o.MaxEntries, o.MaxSize)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
