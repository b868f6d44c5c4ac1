// Package input reads the argument list that feeds the crawler or the
// arbitrary-value parser: a file of newline-separated lines, or stdin.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Open returns a reader over path, or stdin when path is "-" or "". The
// caller must Close the returned reader unless it is os.Stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open %q: %w", path, err)
	}
	return f, nil
}

// Lines reads r line by line, trimming the trailing newline and skipping
// blank lines, preserving argument order for the "crawl order within a
// root, argument order across roots" iteration guarantee.
func Lines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("input: scan: %w", err)
	}
	return out, nil
}
