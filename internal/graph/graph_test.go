package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, src string) *TestGraph {
	t.Helper()
	tg, err := New(context.Background(), testutil.BuildGraph(t, src, "G"))
	require.NoError(t, err)
	return tg
}

const checkout = `
graph G {
  node Cart {}
  node Login {}
  node Pay { requires { token, cart_id } }
  node Receipt {}
  node Audit {}

  Login -> Pay { passes { token } }
  Cart -> Pay { passes { cart_id } }
  Cart -> Pay { passes { cart_id, currency } }
  Pay -> Receipt
}`

func TestNew(t *testing.T) {
	tg := newTestGraph(t, checkout)

	assert.Equal(t, "G", tg.Name())
	assert.Equal(t, 5, tg.Len())
	assert.Equal(t, 4, tg.EdgeCount())
	assert.Equal(t, []string{"Cart", "Login", "Pay", "Receipt", "Audit"}, tg.Nodes())

	n, ok := tg.Node("Pay")
	require.True(t, ok)
	assert.Equal(t, []string{"token", "cart_id"}, n.Requires)

	_, ok = tg.Node("Nope")
	assert.False(t, ok)
}

func TestArcs(t *testing.T) {
	tg := newTestGraph(t, checkout)

	assert.Equal(t, []string{"Cart", "Login"}, tg.Predecessors("Pay"))
	assert.Equal(t, []string{"Receipt"}, tg.Successors("Pay"))
	assert.Len(t, tg.EdgesBetween("Cart", "Pay"), 2)
	assert.Equal(t, []string{"cart_id", "currency"}, tg.Passes("Cart", "Pay"))
	assert.Empty(t, tg.Passes("Pay", "Receipt"))

	assert.Equal(t, []string{"Cart", "Login", "Audit"}, tg.Roots())
	assert.Equal(t, []string{"Receipt", "Audit"}, tg.Leaves())
}

func TestTopologicalSort(t *testing.T) {
	tg := newTestGraph(t, checkout)

	order, err := tg.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"Cart", "Login", "Pay", "Receipt", "Audit"}, order)

	levels, err := tg.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Cart", "Login", "Audit"}, {"Pay"}, {"Receipt"}}, levels)

	assert.NoError(t, tg.FindCycle())
}

func TestCycle(t *testing.T) {
	tg := newTestGraph(t, `
graph G {
  node A {}
  node B {}
  node C {}
  A -> B
  B -> A
  B -> C
}`)

	err := tg.FindCycle()
	var cerr *CycleError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Cycle)
	assert.Equal(t, 7, cerr.Range.Start.Line, "points at the edge closing the cycle")

	_, err = tg.TopologicalSort()
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Cycle)
	assert.Contains(t, err.Error(), `graph "G" contains a cycle: A -> B -> A`)

	_, err = tg.Levels()
	assert.True(t, errors.As(err, &cerr))

	diags := cerr.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "Dependency cycle", diags[0].Summary)
	require.NotNil(t, diags[0].Subject)
	assert.Equal(t, "main.tast", diags[0].Subject.Filename)

	// Walks still terminate and visit each node once.
	assert.Equal(t, []string{"A", "B", "C"}, tg.DFS("A"))
	assert.Equal(t, []string{"A", "B", "C"}, tg.BFS("A"))
}

func TestReachable(t *testing.T) {
	tg := newTestGraph(t, checkout)

	got, err := tg.Reachable("Login")
	require.NoError(t, err)
	assert.Equal(t, []string{"Login", "Pay", "Receipt"}, got)

	_, err = tg.Reachable("Nope")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestShortestPath(t *testing.T) {
	tg := newTestGraph(t, checkout)

	path, ok := tg.ShortestPath("Cart", "Receipt")
	require.True(t, ok)
	assert.Equal(t, []string{"Cart", "Pay", "Receipt"}, path)

	_, ok = tg.ShortestPath("Receipt", "Cart")
	assert.False(t, ok)
}

func TestSubgraph(t *testing.T) {
	tg := newTestGraph(t, checkout)

	sub, err := tg.Subgraph([]string{"Receipt", "Cart", "Pay"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cart", "Pay", "Receipt"}, sub.Nodes())
	assert.Equal(t, 3, sub.EdgeCount(), "both Cart -> Pay edges and Pay -> Receipt")
	assert.Empty(t, sub.Predecessors("Login"))
	assert.Equal(t, []string{"Cart"}, sub.Predecessors("Pay"))

	_, ok := sub.Node("Login")
	assert.False(t, ok)
	_, ok = sub.Source().Node("Login")
	assert.True(t, ok, "the source graph keeps every node")

	// The receiver is unchanged.
	assert.Equal(t, 5, tg.Len())
	assert.Equal(t, 4, tg.EdgeCount())

	_, err = tg.Subgraph([]string{"Cart", "Ghost"})
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.ErrorContains(t, err, "Ghost")
}

func TestImportedNodes(t *testing.T) {
	out := testutil.BuildIR(t, map[string]string{
		"shop.tast": `
import Auth from "auth.tast"
graph Shop {
  node Cart {}
  Auth.Login -> Cart { passes { token } }
}`,
		"auth.tast": `
graph Auth {
  node Login { provides { token } }
}`,
	}, ir.Options{})

	g, ok := out.Graph("Shop")
	require.True(t, ok)
	tg, err := New(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cart", "Auth.Login"}, tg.Nodes())
	order, err := tg.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"Auth.Login", "Cart"}, order)
}
