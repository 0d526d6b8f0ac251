package dag

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// New creates and returns an initialized, empty Graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{vertices: make(map[T]*vertex[T])}
}

// AddVertex adds a vertex with the given ID and order. Adding an ID twice
// is an error.
func (g *Graph[T]) AddVertex(id T, order int) error {
	if _, ok := g.vertices[id]; ok {
		return fmt.Errorf("vertex %v already exists", id)
	}
	g.vertices[id] = &vertex[T]{id: id, order: order}
	g.ids = g.insertSorted(g.ids, id)
	return nil
}

// AddEdge creates a directed arc from -> to. Repeated arcs collapse into
// one. Self-loops are kept; they make the graph cyclic.
func (g *Graph[T]) AddEdge(from, to T) error {
	src, ok := g.vertices[from]
	if !ok {
		return fmt.Errorf("source vertex not found: %v", from)
	}
	dst, ok := g.vertices[to]
	if !ok {
		return fmt.Errorf("destination vertex not found: %v", to)
	}
	if slices.Contains(src.out, to) {
		return nil
	}
	src.out = g.insertSorted(src.out, to)
	dst.in = g.insertSorted(dst.in, from)
	g.edges++
	return nil
}

// compare orders IDs by vertex Order.
func (g *Graph[T]) compare(a, b T) int {
	return cmp.Compare(g.vertices[a].order, g.vertices[b].order)
}

func (g *Graph[T]) insertSorted(list []T, id T) []T {
	i, _ := slices.BinarySearchFunc(list, id, g.compare)
	// Equal orders keep insertion order.
	for i < len(list) && g.compare(list[i], id) == 0 {
		i++
	}
	return slices.Insert(list, i, id)
}

// Has reports whether the vertex exists.
func (g *Graph[T]) Has(id T) bool {
	_, ok := g.vertices[id]
	return ok
}

// Len returns the number of vertices.
func (g *Graph[T]) Len() int { return len(g.ids) }

// EdgeCount returns the number of distinct arcs.
func (g *Graph[T]) EdgeCount() int { return g.edges }

// Order returns the vertex order, or -1 for an unknown vertex.
func (g *Graph[T]) Order(id T) int {
	if v, ok := g.vertices[id]; ok {
		return v.order
	}
	return -1
}

// Vertices returns all vertex IDs sorted by Order.
func (g *Graph[T]) Vertices() []T {
	return slices.Clone(g.ids)
}

// Successors returns the direct successors of id sorted by Order.
func (g *Graph[T]) Successors(id T) []T {
	if v, ok := g.vertices[id]; ok {
		return slices.Clone(v.out)
	}
	return nil
}

// Predecessors returns the direct predecessors of id sorted by Order.
func (g *Graph[T]) Predecessors(id T) []T {
	if v, ok := g.vertices[id]; ok {
		return slices.Clone(v.in)
	}
	return nil
}

// Roots returns the vertices without predecessors, sorted by Order.
func (g *Graph[T]) Roots() []T {
	var out []T
	for _, id := range g.ids {
		if len(g.vertices[id].in) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Leaves returns the vertices without successors, sorted by Order.
func (g *Graph[T]) Leaves() []T {
	var out []T
	for _, id := range g.ids {
		if len(g.vertices[id].out) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// CycleError reports that the graph is not acyclic.
type CycleError[T comparable] struct {
	// Cycle is the offending path with the first vertex repeated last.
	Cycle []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = fmt.Sprint(id)
	}
	return "graph contains a cycle: " + strings.Join(parts, " -> ")
}

// AsCycleError returns the CycleError wrapped in err, or nil.
func AsCycleError[T comparable](err error) *CycleError[T] {
	var cerr *CycleError[T]
	if errors.As(err, &cerr) {
		return cerr
	}
	return nil
}

// FindCycle returns a cycle as a vertex path with the first vertex repeated
// last, or nil when the graph is acyclic.
//
// It uses depth-first search with three colors: unvisited, in progress (on
// the active path) and done. Vertices and successors are visited by Order,
// and the first back edge found closes the reported cycle. The walk keeps
// an explicit stack, so depth is not limited by the goroutine stack.
func (g *Graph[T]) FindCycle() []T {
	const (
		unvisited = iota
		inProgress
		done
	)
	color := make(map[T]int, len(g.ids))

	type frame struct {
		id   T
		next int
	}

	for _, start := range g.ids {
		if color[start] != unvisited {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = inProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := g.vertices[top.id].out
			if top.next == len(succ) {
				color[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := succ[top.next]
			top.next++

			switch color[child] {
			case inProgress:
				// Unwind the active path back to child.
				i := len(stack) - 1
				for stack[i].id != child {
					i--
				}
				cycle := make([]T, 0, len(stack)-i+1)
				for _, f := range stack[i:] {
					cycle = append(cycle, f.id)
				}
				return append(cycle, child)
			case unvisited:
				color[child] = inProgress
				stack = append(stack, frame{id: child})
			}
		}
	}
	return nil
}

// TopologicalSort orders all vertices so that every arc points forward,
// using Kahn's algorithm. Whenever several vertices are ready, the one with
// the lowest Order is taken first. A cyclic graph yields a *CycleError.
func (g *Graph[T]) TopologicalSort() ([]T, error) {
	inDegree := make(map[T]int, len(g.ids))
	var ready []T
	for _, id := range g.ids {
		inDegree[id] = len(g.vertices[id].in)
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]T, 0, len(g.ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, child := range g.vertices[id].out {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = g.insertSorted(ready, child)
			}
		}
	}

	if len(order) != len(g.ids) {
		return nil, &CycleError[T]{Cycle: g.FindCycle()}
	}
	return order, nil
}

// TopologicalSortLevels groups vertices into levels: a vertex sits one
// level after the deepest of its predecessors, so every vertex of a level
// can run once the previous levels are done. Each level is sorted by Order.
func (g *Graph[T]) TopologicalSortLevels() ([][]T, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	level := make(map[T]int, len(order))
	var levels [][]T
	for _, id := range order {
		l := 0
		for _, pred := range g.vertices[id].in {
			l = max(l, level[pred]+1)
		}
		level[id] = l
		if l == len(levels) {
			levels = append(levels, nil)
		}
		levels[l] = g.insertSorted(levels[l], id)
	}
	return levels, nil
}

// Reachable returns the vertices reachable from root through outgoing
// arcs, root included, in BFS order.
func (g *Graph[T]) Reachable(root T) ([]T, error) {
	if !g.Has(root) {
		return nil, fmt.Errorf("vertex not found: %v", root)
	}
	return g.BFS(root), nil
}

// DFS returns the vertices reachable from root in depth-first preorder.
// Children are visited by Order and each vertex appears once, so cycles
// terminate. The stack is explicit: children are pushed in reverse and a
// vertex is marked when popped.
func (g *Graph[T]) DFS(root T) []T {
	if !g.Has(root) {
		return nil
	}
	visited := make(map[T]bool)
	var out []T
	stack := []T{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)

		succ := g.vertices[id].out
		for i := len(succ) - 1; i >= 0; i-- {
			if !visited[succ[i]] {
				stack = append(stack, succ[i])
			}
		}
	}
	return out
}

// BFS returns the vertices reachable from root in breadth-first order,
// children visited by Order.
func (g *Graph[T]) BFS(root T) []T {
	if !g.Has(root) {
		return nil
	}
	visited := map[T]bool{root: true}
	out := []T{root}
	for i := 0; i < len(out); i++ {
		for _, child := range g.vertices[out[i]].out {
			if !visited[child] {
				visited[child] = true
				out = append(out, child)
			}
		}
	}
	return out
}

// ShortestPath returns a minimum-arc path from -> to, both included, found
// by unweighted BFS. The second result is false when to is unreachable.
func (g *Graph[T]) ShortestPath(from, to T) ([]T, bool) {
	if !g.Has(from) || !g.Has(to) {
		return nil, false
	}
	parent := map[T]T{}
	visited := map[T]bool{from: true}
	queue := []T{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == to {
			path := []T{to}
			for path[0] != from {
				path = append([]T{parent[path[0]]}, path...)
			}
			return path, true
		}
		for _, child := range g.vertices[id].out {
			if !visited[child] {
				visited[child] = true
				parent[child] = id
				queue = append(queue, child)
			}
		}
	}
	return nil, false
}

// Subgraph returns the subgraph induced by ids: the listed vertices that
// exist, with their orders, and only arcs whose both ends are listed.
func (g *Graph[T]) Subgraph(ids []T) *Graph[T] {
	keep := make(map[T]bool, len(ids))
	for _, id := range ids {
		if g.Has(id) {
			keep[id] = true
		}
	}

	sub := New[T]()
	for _, id := range g.ids {
		if keep[id] {
			_ = sub.AddVertex(id, g.vertices[id].order)
		}
	}
	for _, id := range g.ids {
		if !keep[id] {
			continue
		}
		for _, child := range g.vertices[id].out {
			if keep[child] {
				_ = sub.AddEdge(id, child)
			}
		}
	}
	return sub
}
