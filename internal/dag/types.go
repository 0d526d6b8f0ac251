package dag

// Graph is a directed graph over comparable vertex IDs. Every vertex has an
// Order, used wherever several vertices are eligible at once so that results
// do not depend on map iteration.
type Graph[T comparable] struct {
	// vertices stores all vertices, keyed by ID.
	vertices map[T]*vertex[T]
	// ids holds the vertex IDs sorted by Order.
	ids []T
	// edges counts distinct arcs.
	edges int
}

// vertex is un-exported so that callers go through the public API.
type vertex[T comparable] struct {
	id    T
	order int
	// out and in hold successors and predecessors, sorted by their Order.
	out []T
	in  []T
}
