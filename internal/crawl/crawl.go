// Package crawl walks a root path and emits FileEntry records honoring the
// depth, symlink, cross-filesystem, leaf-dir, empty-dir and
// unreadable-directory policies from the Options value. The directory
// iterator itself is acquired from the host (os.ReadDir/os.Lstat); this
// package only adds the traversal policy on top of it.
package crawl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"partforge/internal/config"
)

// Emit is called once per discovered entry, in crawl order.
type Emit func(path string, size int64, isDir, synthetic bool)

// Crawler walks one or more roots and calls Emit for every entry it finds,
// applying the traversal policy from Options. It is single-threaded by
// design, preserving discovery order.
type Crawler struct {
	opt      *config.Options
	emit     Emit
	rootDev  uint64
	hasDev   bool
	onDirRead func() // optional pacing hook, called once per directory read
}

// New returns a Crawler bound to the given options and emit callback.
// onDirRead, if non-nil, is invoked once before every directory read — used
// to pace traversal of very large trees against slow media.
func New(o *config.Options, emit Emit, onDirRead func()) *Crawler {
	return &Crawler{opt: o, emit: emit, onDirRead: onDirRead}
}

// Walk crawls root, normalizing a single trailing "/" (collapsing any
// duplicates) before traversal.
func (c *Crawler) Walk(root string) error {
	root = normalizeRoot(root)

	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("crawl: stat %q: %w", root, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !c.opt.FollowSymlinks {
			return nil
		}
		resolved, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("crawl: stat symlink target %q: %w", root, err)
		}
		info = resolved
	}

	if !info.IsDir() {
		c.emit(root, info.Size(), false, false)
		return nil
	}

	if dev, ok := deviceID(info); ok {
		c.rootDev = dev
		c.hasDev = true
	}

	_, err = c.walkDir(root, 0)
	return err
}

// walkDir processes one directory and returns whether any real file was
// found at or below it, used to drive the empty-dirs policy.
func (c *Crawler) walkDir(dir string, depth int) (sawFile bool, err error) {
	if c.opt.DirDepthEnabled() && depth >= c.opt.DirDepth {
		size, saw, err := c.aggregate(dir)
		if err != nil {
			return false, err
		}
		c.emit(dir, size, true, true)
		return saw, nil
	}

	children, err := c.readDir(dir)
	if err != nil {
		if c.opt.DNREmpty {
			c.emit(dir, 0, true, true)
			return false, nil
		}
		return false, fmt.Errorf("crawl: read dir %q: %w", dir, err)
	}

	if c.opt.LeafDirs && !hasSubdir(children) {
		var total int64
		var fileCount int
		for _, ch := range children {
			if ch.IsDir() {
				continue
			}
			info, err := ch.Info()
			if err != nil {
				return false, fmt.Errorf("crawl: stat %q: %w", filepath.Join(dir, ch.Name()), err)
			}
			total += info.Size()
			fileCount++
		}
		c.emit(dir, total, true, true)
		// fileCount, not total, decides emptiness: a lone zero-byte file still
		// counts as "a file at or below" for the ancestor empty-dirs check.
		return fileCount > 0, nil
	}

	var sawAny bool
	for _, ch := range children {
		full := filepath.Join(dir, ch.Name())

		if ch.Type()&os.ModeSymlink != 0 {
			if !c.opt.FollowSymlinks {
				continue
			}
			target, err := os.Stat(full)
			if err != nil {
				continue // broken symlink: treated as absent, not fatal
			}
			if target.IsDir() {
				if c.crossesFilesystem(target) {
					continue
				}
				saw, err := c.walkDir(full, depth+1)
				if err != nil {
					return false, err
				}
				sawAny = sawAny || saw
				continue
			}
			c.emit(full, target.Size(), false, false)
			sawAny = true
			continue
		}

		if ch.IsDir() {
			info, err := ch.Info()
			if err != nil {
				return false, fmt.Errorf("crawl: stat %q: %w", full, err)
			}
			if c.crossesFilesystem(info) {
				continue
			}
			saw, err := c.walkDir(full, depth+1)
			if err != nil {
				return false, err
			}
			sawAny = sawAny || saw
			continue
		}

		info, err := ch.Info()
		if err != nil {
			return false, fmt.Errorf("crawl: stat %q: %w", full, err)
		}
		c.emit(full, info.Size(), false, false)
		sawAny = true
	}

	if c.opt.EmptyDirs && !sawAny {
		c.emit(dir, 0, true, true)
	}
	return sawAny, nil
}

// aggregate sums raw file sizes recursively beneath dir, honoring the same
// symlink/cross-fs policy as walkDir but without emitting per-entry records.
// Used by the dir_depth boundary.
func (c *Crawler) aggregate(dir string) (total int64, sawFile bool, err error) {
	children, err := c.readDir(dir)
	if err != nil {
		if c.opt.DNREmpty {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("crawl: read dir %q: %w", dir, err)
	}

	for _, ch := range children {
		full := filepath.Join(dir, ch.Name())

		if ch.Type()&os.ModeSymlink != 0 {
			if !c.opt.FollowSymlinks {
				continue
			}
			target, err := os.Stat(full)
			if err != nil {
				continue
			}
			if target.IsDir() {
				if c.crossesFilesystem(target) {
					continue
				}
				sub, saw, err := c.aggregate(full)
				if err != nil {
					return 0, false, err
				}
				total += sub
				sawFile = sawFile || saw
				continue
			}
			total += target.Size()
			sawFile = true
			continue
		}

		if ch.IsDir() {
			info, err := ch.Info()
			if err != nil {
				return 0, false, fmt.Errorf("crawl: stat %q: %w", full, err)
			}
			if c.crossesFilesystem(info) {
				continue
			}
			sub, saw, err := c.aggregate(full)
			if err != nil {
				return 0, false, err
			}
			total += sub
			sawFile = sawFile || saw
			continue
		}

		info, err := ch.Info()
		if err != nil {
			return 0, false, fmt.Errorf("crawl: stat %q: %w", full, err)
		}
		total += info.Size()
		sawFile = true
	}
	return total, sawFile, nil
}

// readDir lists dir's children sorted lexicographically by name, as required
// for deterministic discovery order given the same on-disk state.
func (c *Crawler) readDir(dir string) ([]os.DirEntry, error) {
	if c.onDirRead != nil {
		c.onDirRead()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func hasSubdir(entries []os.DirEntry) bool {
	for _, e := range entries {
		if e.IsDir() {
			return true
		}
		if e.Type()&os.ModeSymlink != 0 {
			// A symlink's target type isn't known without a stat; conservatively
			// treat unresolved symlinks as not contributing to leaf status so
			// leaf collapsing stays based on real subdirectories only.
			continue
		}
	}
	return false
}

// crossesFilesystem reports whether info's device differs from the root's,
// only meaningful when StayOnFilesystem is set.
func (c *Crawler) crossesFilesystem(info os.FileInfo) bool {
	if !c.opt.StayOnFilesystem || !c.hasDev {
		return false
	}
	dev, ok := deviceID(info)
	return ok && dev != c.rootDev
}

func deviceID(info os.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

// normalizeRoot collapses duplicate trailing slashes to a single one,
// preserving a lone trailing "/" when present.
func normalizeRoot(root string) string {
	if root == "/" {
		return root
	}
	trimmed := strings.TrimRight(root, "/")
	if trimmed == "" {
		return "/"
	}
	if len(root) > len(trimmed) {
		return trimmed + "/"
	}
	return trimmed
}
