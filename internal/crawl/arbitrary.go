package crawl

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArbitraryLine parses one "-a" input line, formatted as a
// non-negative integer size, whitespace, then the path to end of line
// (the sscanf("%lld %[^\n]") grammar from the original tool). Unlike the
// original, negative sizes are rejected explicitly rather than accepted
// through integer overflow.
func ParseArbitraryLine(line string) (size int64, path string, err error) {
	trimmed := strings.TrimLeft(line, " \t")
	sp := strings.IndexAny(trimmed, " \t")
	if sp < 0 {
		return 0, "", fmt.Errorf("malformed arbitrary-value line: missing path after size")
	}

	sizeField := trimmed[:sp]
	n, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed arbitrary-value line: invalid size %q: %w", sizeField, err)
	}
	if n < 0 {
		return 0, "", fmt.Errorf("malformed arbitrary-value line: negative size %d", n)
	}

	rest := strings.TrimLeft(trimmed[sp+1:], " \t")
	if rest == "" {
		return 0, "", fmt.Errorf("malformed arbitrary-value line: empty path")
	}
	return n, rest, nil
}
