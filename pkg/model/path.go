package model

import (
	"path"
	"strings"
	"unicode"
)

// forbiddenPathChars may not appear in a configuration file path.
//
// The '@' character is reserved to mark generations in the archive layout.
const forbiddenPathChars = "!#<>$%&'@^`~+,;="

// NormalizePath checks a configuration file path and returns its canonical form.
//
// Leading slashes are removed, and "." segments or duplicate separators are cleaned up.
// A path may not be empty, escape the root with "..", contain a segment starting with a dot,
// or contain white space or any of the characters: !#<>$%&'@^`~+,;=
func NormalizePath(p string) (string, error) {
	trimmed := strings.TrimLeft(p, "/")
	if trimmed == "" {
		return "", ErrInvalidPath.WrapMessage("empty path %q", p)
	}
	if strings.ContainsAny(trimmed, forbiddenPathChars) || strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		return "", ErrInvalidPath.WrapMessage("path %q contains forbidden characters", p)
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", ErrInvalidPath.WrapMessage("path %q escapes the root", p)
		}
	}

	cleaned := path.Clean(trimmed)
	for _, segment := range strings.Split(cleaned, "/") {
		if strings.HasPrefix(segment, ".") {
			return "", ErrInvalidPath.WrapMessage("path %q has a hidden segment", p)
		}
	}
	return cleaned, nil
}
