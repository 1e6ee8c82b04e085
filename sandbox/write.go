package sandbox

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"
)

// WriteFile creates or overwrites path with content, creating missing parent
// directories. When neither the file nor its parent directory exists, an existing
// file with the same name elsewhere in the sandbox is overwritten instead; if there
// is none, the file is created at the literal location.
//
// There is no rollback: a failed write may leave created directories or a
// truncated file behind.
func (s *Sandbox) WriteFile(path, content string) (string, error) {
	target, err := locate(s.root, path)
	if err != nil {
		return "", err
	}

	target, err = s.overwriteTarget(path, target)
	if err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(filepath.Dir(target), DirPermission); err != nil {
		return "", classifyOSError(path, "create directories for", err)
	}
	if err := s.fs.WriteFile(target, []byte(content), FilePermission); err != nil {
		return "", classifyOSError(path, "write file", err)
	}

	return fmt.Sprintf("Successfully wrote to \"%s\" (%d characters written)", path, utf8.RuneCountInString(content)), nil
}

// overwriteTarget applies the fallback rule: search by basename only when both the
// literal file and its parent directory are missing.
func (s *Sandbox) overwriteTarget(path, target string) (string, error) {
	fileExists, err := s.fs.FileExists(target)
	if err != nil {
		return "", classifyOSError(path, "access", err)
	}
	if fileExists {
		return target, nil
	}
	parentExists, err := s.fs.FileExists(filepath.Dir(target))
	if err != nil {
		return "", classifyOSError(path, "access", err)
	}
	if parentExists {
		return target, nil
	}

	resolved, err := Resolve(s.root, path, ModeFile)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return target, nil
		}
		return "", err
	}

	s.logger.Debug("write redirected to existing file",
		zap.String("path", path),
		zap.String("resolved", resolved))
	return resolved, nil
}
