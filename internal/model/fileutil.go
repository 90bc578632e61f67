package model

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ExpandTilde expands a leading ~ to the user's home directory
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}
	return path
}

// IsRegularFile reports whether path exists and is a regular file (symlinks are followed).
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsExecutable reports whether path is a regular file the current user may
// execute, as decided by access(2).
func IsExecutable(path string) bool {
	if !IsRegularFile(path) {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
