// Package deps derives the flat dependency file consumed by the graph
// builder from the build system's package manifest, and decides when an
// existing dependency file can be reused.
//
// The file holds one line per package:
//
//	<package-id>: <dep1> <dep2> ... <depN>
package deps
