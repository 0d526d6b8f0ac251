// Package graph is the graph engine: it turns one resolved ir.Graph into a
// traversable test graph.
//
// # Why Graph Package Exists
//
// The plan compiler and the emitters need two things at once: the
// declaration data of each node (steps, tags, requires) and the structure of
// the graph (arcs, cycles, reachability). The IR keeps the first, the
// generic dag package implements the second. TestGraph is the facade that
// joins them, so consumers never coordinate the two by hand.
//
//	┌─────────────────────────────────────┐
//	│          TestGraph facade           │
//	│   (plan compiler, emitters, CLI)    │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │ dag.Graph  │  │  ir.Graph  │
//	  │ (structure)│  │   (data)   │
//	  └────────────┘  └────────────┘
//
// Vertices are node keys and carry the node's declaration order, so every
// traversal is deterministic. Arcs carry the IR edges they were built from,
// which is where the `passes` metadata lives. Several edges between the same
// pair of nodes collapse into one arc that keeps all of them.
//
// # Thread-Safety
//
// A TestGraph is never mutated after New returns. Subgraph builds a new
// value instead of narrowing the receiver, so any number of traversals may
// run concurrently over the same TestGraph.
package graph
