// Package fileutil provides file and path helpers.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrEmptyFilename   = errors.New("filename cannot be empty")
	ErrInvalidFilename = errors.New("invalid filename")
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if s contains a path separator.
//
// Examples:
//   - "prod" -> false (config name)
//   - "./prod.yaml" -> true
//   - "C:\cfg\prod.yaml" -> true
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// UploadName returns the base name of a client-supplied filename. Directory
// components are discarded so the result always names a file directly
// inside the upload directory.
func UploadName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: contains null byte", ErrInvalidFilename)
	}
	// Client paths may use either separator.
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.Clean("/" + name))
	switch base {
	case "", ".", "/", "..":
		return "", ErrEmptyFilename
	}
	return base, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._ -]+`)

// OutputName derives a PDF filename from a document title: unsafe characters
// become "-" and the ".pdf" extension is appended. An empty title yields
// fallback + ".pdf".
func OutputName(title, fallback string) string {
	name := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, "-"))
	name = strings.Trim(name, ".- ")
	if name == "" {
		name = fallback
	}
	return name + ".pdf"
}
