// Package dag is the graph layer of the compiler. It holds a directed graph
// whose vertices carry a declaration order, and provides the algorithms the
// plan compiler builds on: cycle detection with the offending path,
// Kahn's topological sort with an order tie-break, topological levels,
// reachability, induced subgraphs, shortest paths and deterministic DFS and
// BFS walks.
//
// A Graph is built once and then only read, so any number of goroutines may
// traverse the same Graph concurrently.
package dag
