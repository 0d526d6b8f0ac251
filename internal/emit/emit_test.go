package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/specialistvlad/tast/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const registerLogin = `
graph Auth {
  node Register {
    describe "create an account"
    tags [smoke]
    given a visitor on the signup page
    when the visitor registers with email "a@b.c"
  }
  node Login {
    requires { user_id, locale }
    config { locale: "en" }
    when the user logs in as <user_id>
    then the dashboard shows "Welcome"
  }
  Register -> Login { passes { user_id } }
}`

func testPlan(t *testing.T) (*graph.TestGraph, *plan.Plan) {
	t.Helper()
	tg, err := graph.New(context.Background(), testutil.BuildGraph(t, registerLogin, "Auth"))
	require.NoError(t, err)
	p, err := plan.Compile(context.Background(), tg, plan.Options{})
	require.NoError(t, err)
	return tg, p
}

func encodePlan(t *testing.T, f Format, p *plan.Plan) string {
	t.Helper()
	enc, err := ForPlan(f)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, enc.EncodePlan(&buf, p))
	return buf.String()
}

func TestJSON(t *testing.T) {
	_, p := testPlan(t)
	out := encodePlan(t, JSON, p)

	var doc plan.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Empty(t, cmp.Diff(p.Document(), &doc))

	assert.Contains(t, out, `"depends_on": []`)
	assert.Contains(t, out, `"source": "from:Register"`)
	assert.Contains(t, out, `"user_id": "pending"`)
}

func TestYAML(t *testing.T) {
	_, p := testPlan(t)
	out := encodePlan(t, YAML, p)

	var doc plan.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Empty(t, cmp.Diff(p.Document(), &doc))

	assert.Contains(t, out, "name: Auth\nstrategy: topological\n")
	assert.Contains(t, out, "depends_on: []")
	assert.Contains(t, out, "source: from:Register")
}

func TestStructuredOutputIsStable(t *testing.T) {
	_, first := testPlan(t)
	_, second := testPlan(t)
	for _, f := range []Format{YAML, JSON, Markdown, JUnit} {
		assert.Equal(t, encodePlan(t, f, first), encodePlan(t, f, second), f)
	}
}

func TestMarkdown(t *testing.T) {
	_, p := testPlan(t)
	out := encodePlan(t, Markdown, p)

	for _, want := range []string{
		"# Plan: Auth\n",
		"- Strategy: topological\n",
		"- Nodes: 2, edges: 1\n",
		"| 1 | Register |  | smoke |\n",
		"| 2 | Login | Register |  |\n",
		"## 1. Register\n\ncreate an account\n",
		"- when the visitor registers with email \"a@b.c\" `{ email: \"a@b.c\" }`\n",
		"- `user_id` ← from:Register\n",
		"- `locale` ← static (\"en\")\n",
		"- `user_id`: pending\n",
		"**Assertions**\n\n- then the dashboard shows \"Welcome\" `{ shows: \"Welcome\" }`\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestJUnit(t *testing.T) {
	_, p := testPlan(t)
	p.Name = "Auth & <Co>"
	out := encodePlan(t, JUnit, p)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	for _, want := range []string{
		`<testsuites name="Auth &amp; &lt;Co&gt;" tests="2" time="0">`,
		`<testsuite name="Auth &amp; &lt;Co&gt;" tests="2" time="0">`,
		`<testcase name="Register" classname="Auth &amp; &lt;Co&gt;">`,
		`<testcase name="Login" classname="Auth &amp; &lt;Co&gt;">`,
		"Given a visitor on the signup page",
		"When the visitor registers with email &#34;a@b.c&#34;",
		"Then the dashboard shows &#34;Welcome&#34;",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Auth & <Co>")

	var doc struct {
		Suites []struct {
			Cases []struct {
				Name string `xml:"name,attr"`
				Out  string `xml:"system-out"`
			} `xml:"testcase"`
		} `xml:"testsuite"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Suites, 1)
	require.Len(t, doc.Suites[0].Cases, 2)
	assert.Equal(t, "Login", doc.Suites[0].Cases[1].Name)
	assert.Contains(t, doc.Suites[0].Cases[1].Out, "When the user logs in as <user_id>")
}

func TestDOT(t *testing.T) {
	tg, _ := testPlan(t)
	enc, err := ForGraph(DOT)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.EncodeGraph(&buf, tg))
	assert.Equal(t, `digraph "Auth" {
  rankdir=LR;
  node [shape=box];
  "Register" [label="Register\n[smoke]"];
  "Login" [label="Login"];
  "Register" -> "Login" [label="user_id"];
}
`, buf.String())
}

func TestMermaid(t *testing.T) {
	out := testutil.BuildIR(t, map[string]string{
		"shop.tast": `
import Auth from "auth.tast"
graph Shop {
  node Cart { describe "the \"cart\"" }
  Auth.Login -> Cart { passes { token } }
  Cart -> Cart2
  node Cart2 {}
}`,
		"auth.tast": `
graph Auth {
  node Login { provides { token } }
}`,
	}, ir.Options{})
	g, ok := out.Graph("Shop")
	require.True(t, ok)
	tg, err := graph.New(context.Background(), g)
	require.NoError(t, err)

	enc, err := ForGraph(Mermaid)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, enc.EncodeGraph(&buf, tg))
	assert.Equal(t, `flowchart TD
  n0["Cart"]
  n1["Cart2"]
  n2["Auth.Login"]
  n2 -->|"token"| n0
  n0 --> n1
  classDef imported stroke-dasharray: 5 5
  class n2 imported
`, buf.String())
}

func TestUnknownFormat(t *testing.T) {
	_, err := ForPlan(DOT)
	assert.ErrorContains(t, err, `unknown plan format "dot" (supported: yaml, json, markdown, junit)`)
	_, err = ForGraph("svg")
	assert.ErrorContains(t, err, `unknown graph format "svg" (supported: dot, mermaid)`)

	assert.Equal(t, []Format{YAML, JSON, Markdown, JUnit}, PlanFormats())
	assert.Equal(t, []Format{DOT, Mermaid}, GraphFormats())
}
