package model

import (
	"io"
	"os"
	"strings"
	"time"
)

// Command describes a single child process invocation.
type Command struct {
	Name string   // Executable (e.g., make, ./configure)
	Args []string // Arguments, without the executable
	Dir  string   // Working directory of the child; empty means the current one
	Env  []string // Full environment of the child in KEY=VALUE form; nil inherits

	// Stderr, when set, receives the child's stderr separately so that the
	// captured output is stdout only. Used for commands whose stdout is data.
	Stderr io.Writer
}

// String renders the command line the way a user would type it.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// RunResult is the outcome of any external process invocation.
type RunResult struct {
	ExitCode int
	Output   []string // Combined stdout/stderr, one entry per line
}

// BuildConfig is the build system's saved configuration (BR2_CONFIG).
type BuildConfig struct {
	Path string
}

// ModTime returns the last-modified time of the configuration file.
func (c BuildConfig) ModTime() (time.Time, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Exists reports whether the configuration path names a regular file.
func (c BuildConfig) Exists() bool {
	return IsRegularFile(c.Path)
}

// BuilderArtifact is the compiled dependency-graph builder executable.
type BuilderArtifact struct {
	Path string
}

// Package is one retained entry of the build system's package manifest.
type Package struct {
	Name         string
	Dependencies []string
}

// Manifest maps package identifiers to their manifest entries.
type Manifest map[string]Package
