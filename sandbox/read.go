package sandbox

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ReadFile returns the UTF-8 content of path. Content longer than the configured
// character limit is cut to exactly that many characters and followed by a marker
// line naming the requested path and the limit.
func (s *Sandbox) ReadFile(path string) (string, error) {
	resolved, err := s.resolve(path, ModeFile)
	if err != nil {
		return "", err
	}

	info, err := s.fs.Stat(resolved)
	if err != nil {
		return "", classifyOSError(path, "read file", err)
	}
	if !info.Mode().IsRegular() {
		return "", errNotAFile(path)
	}

	data, err := s.fs.ReadFile(resolved)
	if err != nil {
		return "", classifyOSError(path, "read file", err)
	}

	content, err := decodeText(data)
	if err != nil {
		return "", newError(KindDecodeError, path, err,
			"Cannot read file '%s' - file appears to be binary or uses unsupported encoding", path)
	}

	return truncateChars(content, s.config.MaxFileChars, path), nil
}

func decodeText(data []byte) (string, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// truncateChars cuts content to limit characters (code points, not bytes).
func truncateChars(content string, limit int, path string) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(content[cut:])
		cut += size
	}
	return content[:cut] + truncationMarker(path, limit)
}

func truncationMarker(path string, limit int) string {
	return fmt.Sprintf("\n[...File \"%s\" truncated at %d characters]", path, limit)
}

// IsTruncated reports whether text read from path ends with the truncation marker.
func IsTruncated(text, path string, limit int) bool {
	marker := truncationMarker(path, limit)
	return len(text) >= len(marker) && text[len(text)-len(marker):] == marker
}
