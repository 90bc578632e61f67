package deps

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pbuilder/internal/model"
)

// Write serializes m in dependency file format, one line per package in
// ascending identifier order.
func Write(w io.Writer, m model.Manifest) error {
	bw := bufio.NewWriter(w)
	for _, id := range SortedIDs(m) {
		bw.WriteString(id)
		bw.WriteString(": ")
		bw.WriteString(strings.Join(m[id].Dependencies, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile replaces the content of path with m. Nothing of the previous
// content survives, even when m is empty. The file is written next to path
// and renamed over it, so a failed write leaves the previous file untouched.
func WriteFile(path string, m model.Manifest) error {
	return writeFile(path, m, Write)
}

func writeFile(path string, m model.Manifest, write func(io.Writer, model.Manifest) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteFailed{Path: path, Err: err}
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return &WriteFailed{Path: path, Err: err}
	}

	if err := write(f, m); err != nil {
		return fail(err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &WriteFailed{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &WriteFailed{Path: path, Err: err}
	}
	return nil
}
