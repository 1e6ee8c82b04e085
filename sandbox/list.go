package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DirEntry describes one immediate child of a listed directory
type DirEntry struct {
	Name  string
	Size  int64
	IsDir bool
}

func (e DirEntry) String() string {
	return fmt.Sprintf("%s: file_size=%d, is_dir=%s", e.Name, e.Size, pyBool(e.IsDir))
}

// ListDirectory lists the immediate children of dir, one "name: file_size=N, is_dir=B"
// line per entry. Order follows the directory itself and is not sorted.
func (s *Sandbox) ListDirectory(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	mode := ModeDirectory
	if dir == "." {
		mode = ModeLiteral
	}

	resolved, err := s.resolve(dir, mode)
	if err != nil {
		return "", err
	}

	entries, err := s.listEntries(dir, resolved)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.String())
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Sandbox) listEntries(requested, resolved string) ([]DirEntry, error) {
	info, err := s.fs.Stat(resolved)
	if err != nil {
		return nil, classifyOSError(requested, "access directory", err)
	}
	if !info.IsDir() {
		return nil, errNotADirectory(requested)
	}

	children, err := s.fs.ReadDir(resolved)
	if err != nil {
		return nil, classifyOSError(requested, "list directory", err)
	}

	entries := make([]DirEntry, 0, len(children))
	for _, child := range children {
		// Stat follows symlinks; dangling links and special files are left out.
		childInfo, statErr := s.fs.Stat(filepath.Join(resolved, child.Name()))
		if statErr != nil {
			continue
		}
		switch {
		case childInfo.IsDir():
			entries = append(entries, DirEntry{Name: child.Name(), IsDir: true})
		case childInfo.Mode().IsRegular():
			entries = append(entries, DirEntry{Name: child.Name(), Size: childInfo.Size()})
		}
	}
	return entries, nil
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
