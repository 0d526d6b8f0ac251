// Package ast defines the syntax tree produced by the parser for a single
// `.tast` source file.
//
// Every node carries an hcl.Range so that later stages can report errors
// against the exact source location. Literal values are go-cty values:
// strings, exact numbers, booleans and null.
package ast

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// File is one compilation unit.
type File struct {
	Path     string
	Imports  []*Import
	Fixtures []*Fixture
	Graphs   []*Graph
	Range    hcl.Range
}

// Import is `import Name from "path"`.
type Import struct {
	Name  string
	Path  string
	Range hcl.Range
}

// Graph is `graph Name { ... }`.
type Graph struct {
	Name      string
	Nodes     []*Node
	Edges     []*Edge
	Fixtures  []*Fixture
	Config    *DataBlock
	NameRange hcl.Range
	Range     hcl.Range
}

// Node is `node Name { ... }`.
type Node struct {
	Name        string
	Description string
	Steps       []*Step
	Tags        []string
	Requires    []string
	Provides    []string
	// Fixtures lists `fixture Name` statements attached to the node.
	Fixtures  []*FixtureRef
	Config    *DataBlock
	NameRange hcl.Range
	Range     hcl.Range
}

// Edge is `Source -> Target { passes { ... } describe "..." }`.
// Source and Target may be qualified (`Graph.Node`).
type Edge struct {
	From        string
	To          string
	Passes      []string
	Description string
	FromRange   hcl.Range
	ToRange     hcl.Range
	Range       hcl.Range
}

// Fixture is a named, reusable DataBlock.
type Fixture struct {
	Name  string
	Data  *DataBlock
	Range hcl.Range
}

// FixtureRef is a by-name use of a fixture.
type FixtureRef struct {
	Name  string
	Range hcl.Range
}

// Field is one `key: value` entry of a DataBlock.
type Field struct {
	Key   string
	Value cty.Value
	Range hcl.Range
}

// DataBlock is `{ key: value, FixtureName, ... }`. Bare identifiers are
// fixture references and are expanded by the IR builder.
type DataBlock struct {
	Fields []*Field
	Refs   []*FixtureRef
	Range  hcl.Range
}

// Lookup returns the value for key and whether it was present.
func (d *DataBlock) Lookup(key string) (cty.Value, bool) {
	if d == nil {
		return cty.NilVal, false
	}
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return cty.NilVal, false
}
