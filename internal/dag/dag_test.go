package dag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build creates a graph from "A,B,C" vertices (order = position) and
// "A->B,B->C" arcs.
func build(t *testing.T, nodes, edges string) *Graph[string] {
	t.Helper()
	g := New[string]()
	for i, n := range strings.Split(nodes, ",") {
		require.NoError(t, g.AddVertex(n, i))
	}
	if edges == "" {
		return g
	}
	for _, e := range strings.Split(edges, ",") {
		ends := strings.SplitN(e, "->", 2)
		require.NoError(t, g.AddEdge(ends[0], ends[1]), e)
	}
	return g
}

func TestNew(t *testing.T) {
	g := New[string]()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Vertices())
}

func TestAddVertex(t *testing.T) {
	g := New[string]()

	require.NoError(t, g.AddVertex("b", 1))
	require.NoError(t, g.AddVertex("a", 0))
	assert.ErrorContains(t, g.AddVertex("a", 5), "already exists")

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.Vertices(), "vertices are kept by order")
	assert.Equal(t, 1, g.Order("b"))
	assert.Equal(t, -1, g.Order("dne"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := build(t, "a,b,c", "")
		require.NoError(t, g.AddEdge("a", "c"))
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b")) // repeated arcs collapse

		assert.Equal(t, []string{"b", "c"}, g.Successors("a"))
		assert.Equal(t, []string{"a"}, g.Predecessors("b"))
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("error cases", func(t *testing.T) {
		g := build(t, "a,b", "")
		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source vertex not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination vertex not found")
	})

	t.Run("self loop", func(t *testing.T) {
		g := build(t, "a", "")
		require.NoError(t, g.AddEdge("a", "a"))
		assert.Equal(t, []string{"a", "a"}, g.FindCycle())
	})
}

func TestRootsAndLeaves(t *testing.T) {
	g := build(t, "a,b,c,d", "a->b,a->c,d->c")
	assert.Equal(t, []string{"a", "d"}, g.Roots())
	assert.Equal(t, []string{"b", "c"}, g.Leaves())
}

func TestFindCycle(t *testing.T) {
	testCases := []struct {
		name  string
		nodes string
		edges string
		want  []string
	}{
		{name: "no cycle", nodes: "a,b,c", edges: "a->b,b->c"},
		{name: "simple cycle", nodes: "a,b", edges: "a->b,b->a", want: []string{"a", "b", "a"}},
		{name: "cycle behind a tail", nodes: "a,b,c,d", edges: "a->b,b->c,c->d,d->b", want: []string{"b", "c", "d", "b"}},
		{name: "diamond is acyclic", nodes: "a,b,c,d", edges: "a->b,a->c,b->d,c->d"},
		{name: "first back edge wins", nodes: "a,b,c", edges: "a->b,b->a,a->c,c->a", want: []string{"a", "b", "a"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := build(t, tc.nodes, tc.edges)
			assert.Equal(t, tc.want, g.FindCycle())
		})
	}
}

func TestTopologicalSort(t *testing.T) {
	grid := []struct {
		Nodes string
		Edges string
		Want  string
	}{
		{Nodes: "A,B", Want: "A,B"},
		{Nodes: "A,B", Edges: "A->B", Want: "A,B"},
		{Nodes: "A,B", Edges: "B->A", Want: "B,A"},
		{Nodes: "A,B,C,D,E,F", Want: "A,B,C,D,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "C->D", Want: "A,B,C,D,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "D->C", Want: "A,B,D,C,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "F->A,F->B,B->A", Want: "C,D,E,F,B,A"},
		{Nodes: "A,B,C,D,E,F", Edges: "B->A,C->A,D->B,D->C,F->E,A->E", Want: "D,B,C,A,F,E"},
	}

	for i, g := range grid {
		t.Run(fmt.Sprintf("[%d] nodes=%s,edges=%s", i, g.Nodes, g.Edges), func(t *testing.T) {
			d := build(t, g.Nodes, g.Edges)
			order, err := d.TopologicalSort()
			require.NoError(t, err)
			assert.Equal(t, g.Want, strings.Join(order, ","))

			// Every arc points forward.
			pos := make(map[string]int, len(order))
			for i, id := range order {
				pos[id] = i
			}
			for _, id := range order {
				for _, child := range d.Successors(id) {
					assert.Less(t, pos[id], pos[child])
				}
			}
		})
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := build(t, "A,B,C", "A->B,B->A,B->C")
	_, err := g.TopologicalSort()
	require.Error(t, err)

	cerr := AsCycleError[string](err)
	require.NotNil(t, cerr)
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Cycle)
	assert.EqualError(t, err, "graph contains a cycle: A -> B -> A")

	assert.Nil(t, AsCycleError[string](fmt.Errorf("other")))
	assert.NotNil(t, AsCycleError[string](fmt.Errorf("wrapped: %w", err)))
}

func TestTopologicalSortLevels(t *testing.T) {
	g := build(t, "A,B,C,D,E", "A->C,B->C,C->D,A->E")
	levels, err := g.TopologicalSortLevels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"C", "E"}, {"D"}}, levels)

	_, err = build(t, "A,B", "A->B,B->A").TopologicalSortLevels()
	assert.NotNil(t, AsCycleError[string](err))
}

func TestTraversals(t *testing.T) {
	// A -> C, A -> B, B -> D, C -> D, D -> A (cycle back to the root)
	g := build(t, "A,B,C,D", "A->C,A->B,B->D,C->D,D->A")

	assert.Equal(t, []string{"A", "B", "D", "C"}, g.DFS("A"))
	assert.Equal(t, []string{"A", "B", "C", "D"}, g.BFS("A"))
	assert.Nil(t, g.DFS("Z"))
	assert.Nil(t, g.BFS("Z"))

	reach, err := g.Reachable("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "A", "C"}, reach)

	_, err = g.Reachable("Z")
	assert.ErrorContains(t, err, "vertex not found")
}

func TestShortestPath(t *testing.T) {
	g := build(t, "A,B,C,D,E", "A->B,B->C,C->D,A->D,E->A")

	path, ok := g.ShortestPath("A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "D"}, path)

	path, ok = g.ShortestPath("E", "C")
	require.True(t, ok)
	assert.Equal(t, []string{"E", "A", "B", "C"}, path)

	path, ok = g.ShortestPath("B", "B")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, path)

	_, ok = g.ShortestPath("D", "A")
	assert.False(t, ok)
	_, ok = g.ShortestPath("A", "Z")
	assert.False(t, ok)
}

func TestSubgraph(t *testing.T) {
	g := build(t, "A,B,C,D", "A->B,B->C,C->D,A->D")
	sub := g.Subgraph([]string{"D", "A", "C", "Z"})

	assert.Equal(t, []string{"A", "C", "D"}, sub.Vertices())
	assert.Equal(t, []string{"D"}, sub.Successors("A"))
	assert.Equal(t, []string{"D"}, sub.Successors("C"))
	assert.Equal(t, 2, sub.EdgeCount())
	assert.Equal(t, 3, sub.Order("D"), "orders are preserved")

	// The source graph is untouched.
	assert.Equal(t, 4, g.EdgeCount())
}
