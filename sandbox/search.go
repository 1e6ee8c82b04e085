package sandbox

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// search walks the tree under root and returns the first entry whose trailing
// path components equal pattern. With dirsOnly set, entries that are not
// directories (after following a symlink) are skipped.
//
// fastwalk visits directories concurrently, so every match is collected and the
// winner is picked by component-wise lexical order. That is the order a
// sequential pre-order walk with sorted directory entries would reach them in,
// which keeps the choice stable for an unchanged tree.
func search(root string, pattern []string, dirsOnly bool) (string, bool) {
	name := pattern[len(pattern)-1]

	var (
		mu      sync.Mutex
		matches [][]string
	)

	conf := fastwalk.Config{Follow: false}
	// Unreadable subtrees are skipped, so the walk error carries nothing useful.
	_ = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d == nil || path == root {
			return nil
		}
		if d.Name() != name {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if !hasSuffix(parts, pattern) {
			return nil
		}
		if dirsOnly && !isDirEntry(path, d) {
			return nil
		}
		mu.Lock()
		matches = append(matches, parts)
		mu.Unlock()
		return nil
	})

	if len(matches) == 0 {
		return "", false
	}
	sort.Slice(matches, func(i, j int) bool {
		return lessComponents(matches[i], matches[j])
	})
	return filepath.Join(append([]string{root}, matches[0]...)...), true
}

func isDirEntry(path string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasSuffix(parts, suffix []string) bool {
	if len(suffix) > len(parts) {
		return false
	}
	offset := len(parts) - len(suffix)
	for i, s := range suffix {
		if parts[offset+i] != s {
			return false
		}
	}
	return true
}

// lessComponents orders paths the way a pre-order walk over sorted entries visits them:
// a directory precedes its contents, and its contents precede its later siblings.
func lessComponents(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
