// Package hooks runs the live-mode pre/post partition hooks as subprocesses,
// passing the FPART_* environment contract.
package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Env is the set of variables exposed to a hook, per spec.md §6.
type Env struct {
	PartNumber   int
	PartSize     int64
	PartFilename string
	PartNumFiles int // post-hook only; 0 for the pre-hook call
	PartErrno    int // post-hook only
}

// Runner executes a shell command with Env set, inheriting the parent's
// stdin/stdout/stderr. A nonzero exit is reported as an error, which the
// caller treats as fatal ("Hook failure" in spec.md §7).
type Runner struct {
	// Timeout bounds a single hook invocation; zero means no timeout, since
	// the spec leaves hook runtime "bounded only by the hook itself".
	Timeout time.Duration
}

// Run executes cmd (via "sh -c") with the hook environment appended to the
// current process environment, the same inherit-everything-then-append
// pattern this codebase uses for external commands (see the teacher's du/
// mdfind invocations).
func (r Runner) Run(cmd string, e Env) error {
	if cmd == "" {
		return nil
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	c.Env = append(os.Environ(), envPairs(e)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("hook %q: %w", cmd, err)
	}
	return nil
}

func envPairs(e Env) []string {
	return []string{
		"FPART_PARTNUMBER=" + strconv.Itoa(e.PartNumber),
		"FPART_PARTSIZE=" + strconv.FormatInt(e.PartSize, 10),
		"FPART_PARTFILENAME=" + e.PartFilename,
		"FPART_PARTNUMFILES=" + strconv.Itoa(e.PartNumFiles),
		"FPART_PARTERRNO=" + strconv.Itoa(e.PartErrno),
	}
}
