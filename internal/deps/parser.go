package deps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"pbuilder/internal/model"
)

// Parse reads a dependency file back into a Manifest. The file carries no
// package names, so each entry is named after its identifier.
func Parse(r io.Reader) (model.Manifest, error) {
	manifest := make(model.Manifest)

	scanner := bufio.NewScanner(r)
	// Large buffer for packages with long dependency lists
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, rest, ok := strings.Cut(line, ":")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("line %d: %w", lineNum, ErrMalformedLine)
		}
		deps := strings.Fields(rest)
		if deps == nil {
			deps = []string{}
		}
		manifest[id] = model.Package{Name: id, Dependencies: deps}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ReadFile parses the dependency file at path.
func ReadFile(path string) (model.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
