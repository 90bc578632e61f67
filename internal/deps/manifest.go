package deps

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"pbuilder/internal/model"
)

// rawPackage is the per-package object emitted by the build system's
// show-info target. Only the fields the dependency file needs are decoded.
type rawPackage struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
}

// Decode turns the manifest query output into a Manifest. The output must be
// a JSON object; anything else fails the whole decode. Individual entries
// that are not objects of the expected shape, or that carry no name, are
// placeholders in the upstream manifest and are skipped.
func Decode(data []byte, logger *slog.Logger) (model.Manifest, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w (output: %q)", err, truncateOutput(data, 120))
	}
	if entries == nil {
		return nil, errors.New("decode manifest: output is null")
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	manifest := make(model.Manifest, len(entries))
	for _, id := range ids {
		var pkg rawPackage
		if err := json.Unmarshal(entries[id], &pkg); err != nil {
			logger.Debug("Skipping malformed manifest entry", "package", id, "error", err)
			continue
		}
		if pkg.Name == "" {
			logger.Debug("Skipping", "package", id)
			continue
		}
		deps := pkg.Dependencies
		if deps == nil {
			deps = []string{}
		}
		manifest[id] = model.Package{Name: pkg.Name, Dependencies: deps}
	}
	return manifest, nil
}

// SortedIDs returns the package identifiers of m in ascending order.
func SortedIDs(m model.Manifest) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
