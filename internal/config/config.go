// Package config resolves CLI flags and environment variables into a
// validated, immutable Options value. CLI flags take precedence;
// environment variables are used as fallback, matching the flag/env
// resolution order used throughout this codebase's ambient configuration.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"partforge/internal/history"
)

// Mode selects which dispatcher a run uses.
type Mode int

const (
	// ModeFixed partitions into a fixed number of balanced bins (LPT).
	ModeFixed Mode = iota
	// ModeVariable streams entries into bins bounded by count and/or size.
	ModeVariable
)

// Options is the immutable configuration for one run, created once at
// startup and passed by reference to every component.
type Options struct {
	Mode Mode

	NumParts   int   // N, fixed-N mode
	MaxEntries int64 // F, variable-N mode; 0 = unset
	MaxSize    int64 // S, variable-N mode; 0 = unset

	Preload  int64 // P
	Overload int64 // Q
	Round    int64 // R; <2 disables rounding

	InputPath  string // "-" = stdin
	Arbitrary  bool   // -a: lines are "<size> <path>"

	// OutputTemplate is empty for "no -o given" and "-" for explicit
	// stdout; both mean "single combined sink". Any other value T means
	// per-partition files T.0, T.1, ...
	OutputTemplate string

	DirDepth int // -1 = disabled, otherwise >= 0

	AddSlash         bool
	EmptyDirs        bool
	DNREmpty         bool
	LeafDirs         bool
	FollowSymlinks   bool
	StayOnFilesystem bool // -x: do not cross filesystem boundaries

	LiveMode     bool
	PrePartHook  string
	PostPartHook string

	Verbose int // repeatable -v

	// Ambient-stack additions (SPEC_FULL.md §6).
	HistoryDBPath string  // "" = run ledger disabled (-H -)
	ThrottleBps   float64 // 0 = unlimited
	ReportTopK    int
}

// dirDepthUnset is the internal flag default meaning "-d not given".
const dirDepthUnset = -1

// Load parses os.Args and the environment into a validated Options.
func Load(args []string) (*Options, error) {
	fs := flag.NewFlagSet("partforge", flag.ContinueOnError)

	numParts := fs.Int("n", 0, "fixed partition count")
	maxEntries := fs.Int64("f", 0, "max entries per partition")
	maxSize := fs.Int64("s", 0, "max size per partition (bytes)")
	input := fs.String("i", "-", "input file (\"-\" = stdin)")
	arbitrary := fs.Bool("a", false, "input lines are \"<size> <path>\"")
	output := fs.String("o", "", "output template (\"-\" = stdout); partition i goes to TPL.i")
	dirDepth := fs.Int("d", dirDepthUnset, "directory-aggregation depth")
	addSlash := fs.Bool("e", false, "append \"/\" to directory paths on output")
	emptyDirs := fs.Bool("z", false, "emit empty directories")
	dnrEmpty := fs.Bool("Z", false, "treat unreadable directories as empty (implies -z)")
	leafDirs := fs.Bool("D", false, "aggregate leaf directories (implies -z)")
	liveMode := fs.Bool("L", false, "live mode (requires variable-N)")
	preHook := fs.String("w", "", "pre-partition hook (live only)")
	postHook := fs.String("W", "", "post-partition hook (live only)")
	followSymlinks := fs.Bool("l", false, "follow symlinks")
	stayOnFS := fs.Bool("x", false, "do not cross filesystem boundaries")
	preload := fs.Int64("p", 0, "preload bytes per partition")
	overload := fs.Int64("q", 0, "overload bytes per entry")
	round := fs.Int64("r", 0, "round entry size up to multiple of N (N>=2)")
	verbose := verboseCount{}
	fs.Var(&verbose, "v", "verbose (repeatable)")
	historyDB := fs.String("H", "", "run-ledger SQLite file path (env: PARTFORGE_HISTORY_DB)")
	throttle := fs.String("T", "", "throttle manifest-sink writes, e.g. 10mbps (env: PARTFORGE_THROTTLE)")
	reportTopK := fs.Int("k", -1, "size of the top-K largest-entries report (env: PARTFORGE_REPORT_TOPK)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opt := &Options{
		NumParts:         *numParts,
		MaxEntries:       *maxEntries,
		MaxSize:          *maxSize,
		Preload:          *preload,
		Overload:         *overload,
		Round:            *round,
		InputPath:        *input,
		Arbitrary:        *arbitrary,
		OutputTemplate:   *output,
		DirDepth:         *dirDepth,
		AddSlash:         *addSlash,
		EmptyDirs:        *emptyDirs || *dnrEmpty || *leafDirs,
		DNREmpty:         *dnrEmpty,
		LeafDirs:         *leafDirs,
		FollowSymlinks:   *followSymlinks,
		StayOnFilesystem: *stayOnFS,
		LiveMode:         *liveMode,
		PrePartHook:      *preHook,
		PostPartHook:     *postHook,
		Verbose:          int(verbose),
	}

	if err := opt.resolvePrimarySelector(); err != nil {
		return nil, err
	}
	if err := opt.resolveAmbient(*historyDB, *throttle, *reportTopK); err != nil {
		return nil, err
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// resolvePrimarySelector applies the "exactly one of -n, -f, -s" rule and
// derives Mode. Live mode always implies ModeVariable.
func (o *Options) resolvePrimarySelector() error {
	hasN := o.NumParts > 0
	hasF := o.MaxEntries > 0
	hasS := o.MaxSize > 0

	if hasN && (hasF || hasS) {
		return fmt.Errorf("config: -n is incompatible with -f and -s")
	}
	if o.LiveMode && hasN {
		return fmt.Errorf("config: -L requires variable-N mode (-f and/or -s), not -n")
	}

	switch {
	case hasN:
		o.Mode = ModeFixed
	case hasF || hasS:
		o.Mode = ModeVariable
	default:
		return fmt.Errorf("config: exactly one of -n, -f, -s must be given")
	}
	return nil
}

// resolveAmbient applies env-var fallback for the ambient-stack flags and
// fills in their compiled-in defaults, matching the flag/env resolution
// order used for every other option.
func (o *Options) resolveAmbient(historyDB, throttleRaw string, topK int) error {
	if historyDB == "" {
		historyDB = os.Getenv("PARTFORGE_HISTORY_DB")
	}
	if historyDB == "-" {
		// explicit disable
		o.HistoryDBPath = ""
		historyDB = ""
	} else {
		if historyDB == "" {
			historyDB = history.DefaultPath()
		}
		o.HistoryDBPath = historyDB
	}

	if throttleRaw == "" {
		throttleRaw = os.Getenv("PARTFORGE_THROTTLE")
	}
	bps, err := parseBandwidth(throttleRaw)
	if err != nil {
		return fmt.Errorf("config: invalid -T value %q: %w", throttleRaw, err)
	}
	o.ThrottleBps = bps

	if topK < 0 {
		if v := os.Getenv("PARTFORGE_REPORT_TOPK"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("config: invalid PARTFORGE_REPORT_TOPK %q", v)
			}
			topK = n
		} else {
			topK = 10
		}
	}
	o.ReportTopK = topK
	return nil
}

func (o *Options) validate() error {
	if o.Round != 0 && o.Round < 2 {
		return fmt.Errorf("config: -r must be >= 2 (got %d)", o.Round)
	}
	if o.Preload < 0 {
		return fmt.Errorf("config: -p must be non-negative")
	}
	if o.Overload < 0 {
		return fmt.Errorf("config: -q must be non-negative")
	}
	if o.DirDepth != dirDepthUnset && o.DirDepth < 0 {
		return fmt.Errorf("config: -d must be >= 0")
	}
	if (o.PrePartHook != "" || o.PostPartHook != "") && !o.LiveMode {
		return fmt.Errorf("config: -w/-W are only valid with -L")
	}
	if o.NumParts < 0 || o.MaxEntries < 0 || o.MaxSize < 0 {
		return fmt.Errorf("config: -n/-f/-s must be non-negative")
	}
	return nil
}

// DirDepthEnabled reports whether -d was supplied.
func (o *Options) DirDepthEnabled() bool { return o.DirDepth != dirDepthUnset }

// verboseCount implements flag.Value so that repeated -v flags accumulate,
// the same repeatable-flag idiom the teacher uses for -dir.
type verboseCount int

func (v *verboseCount) String() string { return strconv.Itoa(int(*v)) }
func (v *verboseCount) Set(string) error {
	*v++
	return nil
}
func (v *verboseCount) IsBoolFlag() bool { return true }

// parseBandwidth converts a human-readable bandwidth string to bytes per
// second. Accepted units (case-insensitive): bps, kbps, mbps, gbps. A bare
// number is treated as bytes per second. Empty input means "no limit".
func parseBandwidth(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("no numeric value found")
	}
	numStr := s[:i]
	unit := strings.ToLower(strings.TrimSpace(s[i:]))

	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid number %q", numStr)
	}

	switch unit {
	case "":
		return val, nil
	case "bps":
		return val / 8, nil
	case "kbps":
		return val * 1_000 / 8, nil
	case "mbps":
		return val * 1_000_000 / 8, nil
	case "gbps":
		return val * 1_000_000_000 / 8, nil
	default:
		return 0, fmt.Errorf("unknown unit %q (accepted: bps, kbps, mbps, gbps)", unit)
	}
}
