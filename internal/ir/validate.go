package ir

import (
	"fmt"
	"slices"
)

// validateFlow checks data flow along edges and requirement coverage.
func (b *builder) validateFlow(g *Graph) {
	for _, e := range g.Edges {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)

		if !src.ProvidesInferred {
			for _, key := range e.Passes {
				if !producible(src, key) {
					b.fail(&ValidationError{
						Kind:    UnprovidedData,
						Graph:   g.Name,
						Node:    src.Name,
						Key:     key,
						Message: fmt.Sprintf("edge %s -> %s passes %q, which %s neither provides nor holds", e.From, e.To, key, e.From),
						Range:   e.Range,
					})
				}
			}
		}

		if b.opts.StrictPasses && !dst.Imported {
			for _, key := range e.Passes {
				if !slices.Contains(dst.Requires, key) {
					b.fail(&ValidationError{
						Kind:    ExcessData,
						Graph:   g.Name,
						Node:    dst.Name,
						Key:     key,
						Message: fmt.Sprintf("edge %s -> %s passes %q, which %s does not require", e.From, e.To, key, e.To),
						Range:   e.Range,
					})
				}
			}
		}
	}

	for _, n := range g.Nodes {
		if n.Imported {
			continue
		}
		for _, key := range n.Requires {
			if covered(g, n, key) || slices.Contains(b.dropped[g.Name][n.Name], key) {
				continue
			}
			b.fail(&ValidationError{
				Kind:    MissingDependency,
				Graph:   g.Name,
				Node:    n.Name,
				Key:     key,
				Message: fmt.Sprintf("node %q requires %q, but no incoming edge passes it and no fixture or config provides it", n.Name, key),
				Range:   n.NameRange,
			})
		}
	}
}

// covered reports whether key reaches n through a direct incoming edge or
// sits in the node's own static data.
func covered(g *Graph, n *Node, key string) bool {
	if n.Data.Has(key) {
		return true
	}
	for _, e := range g.Incoming(n.Name) {
		if slices.Contains(e.Passes, key) {
			return true
		}
	}
	return false
}

// producible reports whether a node can hand key on: it declares it as an
// output, receives it, or holds it as static or step data.
func producible(n *Node, key string) bool {
	if slices.Contains(n.Provides, key) || slices.Contains(n.Requires, key) || n.Data.Has(key) {
		return true
	}
	for _, s := range n.Steps {
		if s.Data.Has(key) {
			return true
		}
	}
	return false
}

// bindParams records where each `<param>` of a node's steps gets its value.
func (b *builder) bindParams(g *Graph) {
	for _, n := range g.Nodes {
		if n.Imported {
			continue
		}
		incoming := g.Incoming(n.Name)
		for _, s := range n.Steps {
			for i := range s.Params {
				p := &s.Params[i]
				if v, ok := s.Data.Lookup(p.Name); ok {
					p.Source, p.Value = "step", v
					continue
				}
				if v, ok := n.Data.Lookup(p.Name); ok {
					p.Source, p.Value = "static", v
					continue
				}
				p.Source = "pending"
				for _, e := range incoming {
					if slices.Contains(e.Passes, p.Name) {
						p.Source = "from:" + e.From
						break
					}
				}
			}
		}
	}
}

func appendNew(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}
