package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const registerLogin = `
graph Auth {
  node Register {
    describe "create an account"
    tags [smoke]
    given a visitor on the signup page
    when the visitor registers with email "a@b.c"
    then the account exists
  }
  node Login {
    requires { user_id }
    when the user logs in as <user_id>
  }
  Register -> Login { passes { user_id } }
}`

func testGraph(t *testing.T, src, name string) *graph.TestGraph {
	t.Helper()
	tg, err := graph.New(context.Background(), testutil.BuildGraph(t, src, name))
	require.NoError(t, err)
	return tg
}

func compile(t *testing.T, tg *graph.TestGraph, opts Options) *Plan {
	t.Helper()
	p, err := Compile(context.Background(), tg, opts)
	require.NoError(t, err)
	return p
}

func compileErr(t *testing.T, tg *graph.TestGraph, opts Options) *CompilationError {
	t.Helper()
	_, err := Compile(context.Background(), tg, opts)
	require.Error(t, err)
	var cerr *CompilationError
	require.True(t, errors.As(err, &cerr), "got %T: %v", err, err)
	return cerr
}

func TestCompile_RegisterLogin(t *testing.T) {
	p := compile(t, testGraph(t, registerLogin, "Auth"), Options{})

	assert.Equal(t, "Auth", p.Name)
	assert.Equal(t, Topological, p.Strategy)
	assert.Equal(t, Totals{Nodes: 2, Edges: 1}, p.Totals)
	require.Len(t, p.Steps, 2)

	reg := p.Steps[0]
	assert.Equal(t, 1, reg.Order)
	assert.Equal(t, "Register", reg.Node)
	assert.Equal(t, "create an account", reg.Description)
	assert.Equal(t, []string{"smoke"}, reg.Tags)
	assert.Empty(t, reg.DependsOn)
	assert.Empty(t, reg.Inputs)
	assert.Equal(t, []Output{{Key: "user_id", Status: OutputPending, Value: cty.UnknownVal(cty.DynamicPseudoType)}}, reg.Outputs)
	require.Len(t, reg.Preconditions, 1)
	require.Len(t, reg.Actions, 1)
	require.Len(t, reg.Assertions, 1)
	assert.Equal(t, ast.Action, reg.Actions[0].Kind)
	email, ok := reg.Actions[0].Data.Lookup("email")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("a@b.c"), email)

	login := p.Steps[1]
	assert.Equal(t, 2, login.Order)
	assert.Equal(t, "Login", login.Node)
	assert.Equal(t, []string{"Register"}, login.DependsOn)
	assert.Equal(t, []Input{{Key: "user_id", Source: "from:Register"}}, login.Inputs)
	from, ok := login.Inputs[0].From()
	require.True(t, ok)
	assert.Equal(t, "Register", from)
	assert.Empty(t, login.Outputs)
	require.Len(t, login.Actions, 1)
	require.Len(t, login.Actions[0].Params, 1)
	assert.Equal(t, "from:Register", login.Actions[0].Params[0].Source)

	assert.Equal(t, []Edge{{From: "Register", To: "Login", Passes: []string{"user_id"}}}, p.Edges)
}

func TestCompile_TagFilter(t *testing.T) {
	tg := testGraph(t, registerLogin, "Auth")
	full := compile(t, tg, Options{})

	filtered := compile(t, tg, Options{Filter: "smoke"})
	assert.Equal(t, "smoke", filtered.FilterExpr)
	assert.Equal(t, Totals{Nodes: 1, Edges: 0}, filtered.Totals)
	require.Len(t, filtered.Steps, 1)
	assert.Equal(t, *full.Steps[0], *filtered.Steps[0], "retained steps keep every field")
	assert.Empty(t, filtered.Edges)

	// Filtering an already compiled plan gives the same result.
	pred, err := ParseFilter("smoke")
	require.NoError(t, err)
	again := full.Filter(pred)
	assert.Empty(t, cmp.Diff(filtered.Document(), again.Document()))
	assert.Len(t, full.Steps, 2, "the source plan is untouched")

	none := compile(t, tg, Options{Filter: "NOT smoke AND NOT smoke"})
	require.Len(t, none.Steps, 1)
	assert.Equal(t, "Login", none.Steps[0].Node)
	assert.Equal(t, 1, none.Steps[0].Order, "order is renumbered")
	assert.Equal(t, []string{"Register"}, none.Steps[0].DependsOn, "dependencies are kept")
}

func TestCompile_FilterKeepsOrder(t *testing.T) {
	src := `
graph G {
  node A { tags [api] }
  node B { tags [ui] }
  node C { tags [api, slow] }
  node D { tags [api] }
  D -> A
  C -> D
}`
	tg := testGraph(t, src, "G")
	full := compile(t, tg, Options{})
	assert.Equal(t, []string{"B", "C", "D", "A"}, full.NodeNames())

	p := compile(t, tg, Options{Filter: "api AND NOT slow"})
	assert.Equal(t, []string{"D", "A"}, p.NodeNames())
	assert.Equal(t, []int{1, 2}, []int{p.Steps[0].Order, p.Steps[1].Order})
	assert.Equal(t, Totals{Nodes: 2, Edges: 1}, p.Totals)
}

func TestCompile_Determinism(t *testing.T) {
	src := `
graph G {
  node E {}
  node D {}
  node C {}
  node B {}
  node A {}
  A -> B
  C -> B
  E -> A
}`
	tg := testGraph(t, src, "G")
	first := compile(t, tg, Options{})
	second := compile(t, testGraph(t, src, "G"), Options{})

	assert.Empty(t, cmp.Diff(first.Document(), second.Document()))
	assert.Equal(t, []string{"E", "D", "C", "A", "B"}, first.NodeNames())

	fp1, err := Fingerprint(first)
	require.NoError(t, err)
	fp2, err := Fingerprint(second)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64)

	bfs := compile(t, tg, Options{Strategy: BFS, Root: "E"})
	fp3, err := Fingerprint(bfs)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestCompile_TopologicalValidity(t *testing.T) {
	src := `
graph G {
  node Seed {}
  node Users {}
  node Orders {}
  node Payments {}
  node Report {}
  node Cleanup {}
  Report -> Cleanup
  Orders -> Payments
  Seed -> Users
  Users -> Orders
  Payments -> Report
  Seed -> Orders
  Users -> Report
}`
	tg := testGraph(t, src, "G")
	p := compile(t, tg, Options{})

	require.Len(t, p.Steps, 6)
	for _, e := range tg.Edges() {
		from, _ := p.Step(e.From)
		to, _ := p.Step(e.To)
		assert.Less(t, from.Order, to.Order, "%s -> %s", e.From, e.To)
	}
	assert.Equal(t, 7, p.Totals.Edges)
}

func TestCompile_Cycle(t *testing.T) {
	src := `
graph G {
  node A {}
  node B {}
  A -> B
  B -> A
}`
	tg := testGraph(t, src, "G")

	cerr := compileErr(t, tg, Options{})
	assert.Equal(t, Cycle, cerr.Kind)
	var cycle *graph.CycleError
	require.True(t, errors.As(cerr, &cycle))
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Cycle)
	assert.Equal(t, "Dependency cycle", cerr.Diagnostics()[0].Summary)

	p := compile(t, tg, Options{Strategy: DFS, Root: "A"})
	assert.Equal(t, []string{"A", "B"}, p.NodeNames())
	assert.Equal(t, []string{"B"}, p.Steps[0].DependsOn)
	assert.Equal(t, []string{"A"}, p.Steps[1].DependsOn)
}

const shop = `
graph Shop {
  node Home {}
  node Search {}
  node Cart {}
  node Pay {}
  node Admin {}
  Home -> Search
  Home -> Cart
  Search -> Cart
  Cart -> Pay
}`

func TestCompile_Traversals(t *testing.T) {
	tg := testGraph(t, shop, "Shop")

	testCases := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "topological", opts: Options{}, want: []string{"Home", "Search", "Cart", "Pay", "Admin"}},
		{name: "dfs", opts: Options{Strategy: DFS, Root: "Home"}, want: []string{"Home", "Search", "Cart", "Pay"}},
		{name: "bfs", opts: Options{Strategy: BFS, Root: "Home"}, want: []string{"Home", "Search", "Cart", "Pay"}},
		{name: "bfs from leaf", opts: Options{Strategy: BFS, Root: "Pay"}, want: []string{"Pay"}},
		{name: "shortest path", opts: Options{Strategy: ShortestPath, Root: "Home", Target: "Pay"}, want: []string{"Home", "Cart", "Pay"}},
		{name: "subgraph", opts: Options{Nodes: []string{"Pay", "Search", "Cart"}}, want: []string{"Search", "Cart", "Pay"}},
		{name: "subgraph dfs", opts: Options{Strategy: DFS, Root: "Home", Nodes: []string{"Home", "Cart", "Admin"}}, want: []string{"Home", "Cart"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := compile(t, tg, tc.opts)
			assert.Equal(t, tc.want, p.NodeNames())
			assert.Equal(t, len(tc.want), p.Totals.Nodes)
		})
	}
}

func TestCompile_ShortestPathDependsOn(t *testing.T) {
	p := compile(t, testGraph(t, shop, "Shop"), Options{Strategy: ShortestPath, Root: "Home", Target: "Pay"})
	cart, ok := p.Step("Cart")
	require.True(t, ok)
	assert.Equal(t, []string{"Home"}, cart.DependsOn, "Search is not part of the path")
	assert.Equal(t, 2, p.Totals.Edges)
}

func TestCompile_Errors(t *testing.T) {
	tg := testGraph(t, shop, "Shop")

	testCases := []struct {
		name string
		opts Options
		kind CompilationKind
		node string
	}{
		{name: "dfs without root", opts: Options{Strategy: DFS}, kind: MissingRoot},
		{name: "bfs unknown root", opts: Options{Strategy: BFS, Root: "Nope"}, kind: UnknownNode, node: "Nope"},
		{name: "path without target", opts: Options{Strategy: ShortestPath, Root: "Home"}, kind: MissingRoot},
		{name: "path unknown target", opts: Options{Strategy: ShortestPath, Root: "Home", Target: "Nope"}, kind: UnknownNode, node: "Nope"},
		{name: "no path", opts: Options{Strategy: ShortestPath, Root: "Pay", Target: "Home"}, kind: NoPathFound, node: "Home"},
		{name: "unreachable admin", opts: Options{Strategy: ShortestPath, Root: "Home", Target: "Admin"}, kind: NoPathFound, node: "Admin"},
		{name: "unknown strategy", opts: Options{Strategy: "random"}, kind: UnknownStrategy},
		{name: "bad filter", opts: Options{Filter: "smoke AND"}, kind: InvalidFilter},
		{name: "unknown subgraph node", opts: Options{Nodes: []string{"Home", "Ghost"}}, kind: UnknownNode, node: "Ghost"},
		{name: "root outside subgraph", opts: Options{Strategy: DFS, Root: "Pay", Nodes: []string{"Home"}}, kind: UnknownNode, node: "Pay"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cerr := compileErr(t, tg, tc.opts)
			assert.Equal(t, tc.kind, cerr.Kind, cerr.Error())
			assert.Equal(t, tc.node, cerr.Node)
			assert.Contains(t, cerr.Error(), `compile graph "Shop"`)
			assert.NotEmpty(t, cerr.Diagnostics())
		})
	}
}

func TestCompile_Inputs(t *testing.T) {
	src := `
graph G {
  node Login { provides { token, trace_id } }
  node Profile {
    requires { token, locale }
    config { token: "fallback", locale: "en" }
  }
  Login -> Profile { passes { token, trace_id } }
}`
	tg := testGraph(t, src, "G")
	p := compile(t, tg, Options{})

	profile, ok := p.Step("Profile")
	require.True(t, ok)
	assert.Equal(t, []Input{
		{Key: "token", Source: "from:Login"},
		{Key: "locale", Source: SourceStatic, Value: cty.StringVal("en")},
		{Key: "trace_id", Source: "from:Login"},
	}, profile.Inputs)

	// Without Login the edge is gone and the static value takes over.
	sub := compile(t, tg, Options{Nodes: []string{"Profile"}})
	assert.Equal(t, []Input{
		{Key: "token", Source: SourceStatic, Value: cty.StringVal("fallback")},
		{Key: "locale", Source: SourceStatic, Value: cty.StringVal("en")},
	}, sub.Steps[0].Inputs)
}

func TestCompile_UnresolvedInSubgraph(t *testing.T) {
	p := compile(t, testGraph(t, registerLogin, "Auth"), Options{Nodes: []string{"Login"}})
	require.Len(t, p.Steps, 1)
	assert.Equal(t, []Input{{Key: "user_id", Source: SourceUnresolved}}, p.Steps[0].Inputs)
	assert.Empty(t, p.Steps[0].DependsOn)
	assert.Equal(t, []string{"Login"}, p.Subset)
}

func TestCompile_UpstreamTrace(t *testing.T) {
	out := testutil.BuildIR(t, map[string]string{
		"auth.tast": `
graph Auth {
  node Token {}
  node Login { requires { token } }
  Token -> Login { passes { token } }
}`,
		"shop.tast": `
import Auth from "auth.tast"
graph Shop {
  node Seed { provides { token } }
  node Mid {}
  Seed -> Mid { passes { token } }
  Mid -> Auth.Login
}`,
	}, ir.Options{})
	g, ok := out.Graph("Shop")
	require.True(t, ok)
	tg, err := graph.New(context.Background(), g)
	require.NoError(t, err)

	p := compile(t, tg, Options{})
	assert.Equal(t, []string{"Seed", "Mid", "Auth.Login"}, p.NodeNames())
	login, ok := p.Step("Auth.Login")
	require.True(t, ok)
	assert.Equal(t, []Input{{Key: "token", Source: "from:Seed"}}, login.Inputs)
}

func TestParseStrategy(t *testing.T) {
	st, ok := ParseStrategy("")
	assert.True(t, ok)
	assert.Equal(t, Topological, st)

	st, ok = ParseStrategy("shortest-path")
	assert.True(t, ok)
	assert.Equal(t, ShortestPath, st)

	_, ok = ParseStrategy("random")
	assert.False(t, ok)
}
