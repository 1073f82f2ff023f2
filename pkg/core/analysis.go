// Structural analysis of the graph, built on gonum's topology algorithms.
// The live graph is dumped once under a read lock and mirrored into a
// gonum simple.DirectedGraph, so the (potentially expensive) analysis runs
// on an immutable copy without holding any lock.
package core

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Components returns the strongly connected components of the graph. Within
// a component ids are sorted ascending, and components are sorted by their
// smallest id, so the output is stable for a fixed graph.
func (db *DB) Components() [][]NodeID {
	nodes, edges := db.Dump()
	if len(nodes) == 0 {
		return nil
	}

	g := simple.NewDirectedGraph()
	for _, id := range nodes {
		g.AddNode(simple.Node(id))
	}
	for _, e := range edges {
		if e.Source == e.Target {
			// gonum's simple graphs reject self-loops; a self-loop never
			// merges components, so it is safe to skip here.
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}

	sccs := topo.TarjanSCC(g)
	result := make([][]NodeID, 0, len(sccs))
	for _, scc := range sccs {
		comp := make([]NodeID, 0, len(scc))
		for _, n := range scc {
			comp = append(comp, n.ID())
		}
		slices.Sort(comp)
		result = append(result, comp)
	}
	slices.SortFunc(result, func(a, b []NodeID) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
	return result
}

// HasCycle reports whether the graph contains any directed cycle, including
// self-loops.
func (db *DB) HasCycle() bool {
	_, edges := db.Dump()
	for _, e := range edges {
		if e.Source == e.Target {
			return true
		}
	}
	for _, comp := range db.Components() {
		if len(comp) > 1 {
			return true
		}
	}
	return false
}
