// Package plan compiles a test graph into an ordered, dependency-annotated
// execution plan.
//
// A strategy picks and orders the nodes: topological (Kahn with declaration
// order as tie-break), depth-first or breadth-first from a root, or the
// shortest path between two nodes. Two restrictions compose with any of
// them: a node subset applied before the traversal, and a tag predicate
// applied after it. Filtering never reorders the retained steps.
//
// For every included node the compiler records the nodes it depends on, the
// provenance of each input (`from:<Node>` or `static`) and the declared
// outputs, which stay pending until a runner fills them.
//
// A Plan is plain data. Emitters and runners read it and never change it.
package plan
