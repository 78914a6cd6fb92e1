package fsops

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath returns an absolute, cleaned key for path. Windows paths are
// case-insensitive, so they are lowercased there. Case-insensitive volumes
// on other systems are not detected; compare with os.SameFile when both
// paths exist.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if runtime.GOOS == "windows" {
		return strings.ToLower(abs)
	}
	return abs
}
