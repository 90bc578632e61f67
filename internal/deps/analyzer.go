package deps

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"

	"pbuilder/internal/model"
)

// Analysis summarizes the dependency graph described by a manifest.
type Analysis struct {
	Packages    int
	Edges       int
	Dangling    []string // "pkg -> dep" where dep is not a manifest package
	Cycles      []string // "dep -> pkg" edges that would close a cycle
	Diagnostics []string
}

// Analyze builds the dependency graph of m, with an edge from each
// dependency to its dependent, and reports what the graph builder would
// choke on: dependencies that are not packages and cycles.
func Analyze(m model.Manifest) Analysis {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	ids := SortedIDs(m)
	for _, id := range ids {
		_ = g.AddVertex(id)
	}

	a := Analysis{Packages: len(ids)}
	for _, id := range ids {
		for _, dep := range m[id].Dependencies {
			err := g.AddEdge(dep, id)
			switch {
			case err == nil:
				a.Edges++
			case errors.Is(err, graph.ErrVertexNotFound):
				a.Dangling = append(a.Dangling, id+" -> "+dep)
				a.Diagnostics = append(a.Diagnostics,
					fmt.Sprintf("package %q depends on %q, which is not in the manifest", id, dep))
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				a.Cycles = append(a.Cycles, dep+" -> "+id)
				a.Diagnostics = append(a.Diagnostics,
					fmt.Sprintf("dependency %q of package %q closes a cycle", dep, id))
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
				// Listed twice; the builder tolerates it.
			default:
				a.Diagnostics = append(a.Diagnostics,
					fmt.Sprintf("package %q: dependency %q: %v", id, dep, err))
			}
		}
	}
	return a
}
