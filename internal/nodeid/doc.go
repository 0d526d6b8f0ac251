// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for node references in
`.tast` sources.

A reference is either a bare node name (`Login`), resolved inside the graph
that declares the edge, or a qualified name (`Auth.Login`) whose first
segment names an imported graph alias or another graph of the same file.

This package centralizes parsing and formatting of references so the IR
builder and the graph engine agree on one canonical form.
*/
package nodeid
