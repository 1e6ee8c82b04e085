package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Root is the canonical, absolute directory every operation is confined to.
// The zero value is not usable; build one with NewRoot.
type Root struct {
	path string
}

// NewRoot canonicalizes dir (absolute, symlinks evaluated) and checks that it is a directory.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("failed to resolve sandbox root %q: %w", dir, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, fmt.Errorf("failed to resolve sandbox root %q: %w", dir, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return Root{}, fmt.Errorf("failed to stat sandbox root %q: %w", canonical, err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("sandbox root %q is not a directory", canonical)
	}
	return Root{path: canonical}, nil
}

// Path returns the absolute root directory.
func (r Root) Path() string {
	return r.path
}

func (r Root) String() string {
	return r.path
}

// Contains reports whether the canonical path p is the root or one of its descendants.
func (r Root) Contains(p string) bool {
	rel, err := filepath.Rel(r.path, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Mode selects how Resolve treats a path that does not exist literally.
type Mode int

const (
	// ModeLiteral never searches; a missing path is NotFound.
	ModeLiteral Mode = iota
	// ModeFile searches the tree for an entry with the requested basename.
	ModeFile
	// ModeDirectory searches the tree for a directory whose trailing components equal the requested path.
	ModeDirectory
)

// Resolve maps requested onto an existing path inside root.
//
// Containment is checked before existence, so a path outside the root is
// AccessDenied whether or not it exists. When the literal path is missing and
// mode allows it, the sandbox is searched and the first match in pre-order,
// lexically sorted traversal wins. The returned error is always an *OperationError.
func Resolve(root Root, requested string, mode Mode) (string, error) {
	target, err := locate(root, requested)
	if err != nil {
		return "", err
	}

	_, statErr := os.Stat(target)
	switch {
	case statErr == nil:
		return target, nil
	case !isMissing(statErr):
		return "", classifyOSError(requested, "access", statErr)
	}

	if mode == ModeLiteral || target == root.path {
		return "", errNotFound(requested)
	}

	pattern := searchPattern(root, requested, mode)
	if len(pattern) == 0 {
		return "", errNotFound(requested)
	}

	match, found := search(root.path, pattern, mode == ModeDirectory)
	if !found {
		return "", errNotFound(requested)
	}

	// The match was found under root, but it may itself be a symlink.
	canonical := canonicalize(match)
	if !root.Contains(canonical) {
		return "", errAccessDenied(requested, root.path)
	}
	return canonical, nil
}

// locate joins requested onto root, canonicalizes it and enforces containment.
// It does not require the path to exist.
func locate(root Root, requested string) (string, error) {
	joined := requested
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(root.path, requested)
	}
	target := canonicalize(joined)
	if !root.Contains(target) {
		return "", errAccessDenied(requested, root.path)
	}
	return target, nil
}

// canonicalize cleans p and evaluates symlinks on its longest existing prefix.
func canonicalize(p string) string {
	p = filepath.Clean(p)
	current := p
	tail := ""
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			return filepath.Join(resolved, tail)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return p
		}
		tail = filepath.Join(filepath.Base(current), tail)
		current = parent
	}
}

// searchPattern returns the trailing path components the fallback search must match.
func searchPattern(root Root, requested string, mode Mode) []string {
	cleaned := filepath.Clean(requested)
	if filepath.IsAbs(cleaned) {
		rel, err := filepath.Rel(root.path, cleaned)
		if err != nil {
			return nil
		}
		cleaned = rel
	}
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(cleaned), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			// Only what follows the last parent reference is meaningful as a pattern.
			parts = parts[:0]
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil
	}
	if mode == ModeFile {
		return parts[len(parts)-1:]
	}
	return parts
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
