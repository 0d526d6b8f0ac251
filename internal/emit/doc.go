// Package emit projects plans and graphs into text formats.
//
// Every encoder is stateless and only reads its input. Plans encode to yaml,
// json and markdown; graphs encode to Graphviz dot and Mermaid flowcharts.
package emit
