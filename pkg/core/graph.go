// Package core provides the fundamental data structures and logic for the GrafoDB engine.
//
// This file implements a thread-safe, in-memory directed graph. It uses a
// read-write mutex to allow concurrent reads while ensuring exclusive access
// for write operations (AddNode, AddEdge, RemoveNode, RemoveEdge). Nodes are
// kept in an ordered B-Tree map so that full iterations (snapshots, AOF
// rewriting, stats) always produce the same output for the same state.
package core

import (
	"slices"
	"sync"

	"github.com/tidwall/btree"
)

// NodeID identifies a vertex in the graph. It is an alias for int64 so ids
// can flow into gonum (which keys graphs by int64) without conversion.
type NodeID = int64

// nodeEntry holds the adjacency of a single node.
// out preserves edge insertion order; that order is the one every traversal
// follows, which is what makes path search deterministic.
type nodeEntry struct {
	out []NodeID
	in  []NodeID
}

// DB is a thread-safe, in-memory directed graph.
// It uses a sync.RWMutex to manage concurrent access, allowing for multiple
// concurrent readers or a single exclusive writer. Searches never mutate it.
type DB struct {
	mu    sync.RWMutex
	nodes btree.Map[NodeID, *nodeEntry]
	edges int
}

// NewDB creates and returns a new, empty graph.
func NewDB() *DB {
	return &DB{}
}

// AddNode registers a node with no edges. It returns true if the node was
// created, false if it already existed.
func (db *DB) AddNode(id NodeID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.addNodeLocked(id)
}

func (db *DB) addNodeLocked(id NodeID) bool {
	if _, ok := db.nodes.Get(id); ok {
		return false
	}
	db.nodes.Set(id, &nodeEntry{})
	return true
}

// RemoveNode deletes a node together with all its incident edges, in both
// directions. It returns false if the node was unknown.
func (db *DB) RemoveNode(id NodeID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.nodes.Get(id)
	if !ok {
		return false
	}

	// Detach from the adjacency of every neighbor on both sides.
	for _, dst := range entry.out {
		if dst == id {
			continue // self-loop, removed with the entry itself
		}
		if nb, ok := db.nodes.Get(dst); ok {
			nb.in = removeID(nb.in, id)
		}
	}
	for _, src := range entry.in {
		if src == id {
			continue
		}
		if nb, ok := db.nodes.Get(src); ok {
			nb.out = removeID(nb.out, id)
		}
	}

	db.edges -= len(entry.out) + len(entry.in)
	if slices.Contains(entry.out, id) {
		// A self-loop sits in both lists but is a single edge.
		db.edges++
	}
	db.nodes.Delete(id)
	return true
}

// AddEdge creates the directed edge src->dst. Unknown endpoints are
// registered automatically. Duplicate edges are rejected. The relative order
// of a node's outgoing edges is their insertion order.
// It returns true if the edge was created.
func (db *DB) AddEdge(src, dst NodeID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.addNodeLocked(src)
	db.addNodeLocked(dst)

	se, _ := db.nodes.Get(src)
	if slices.Contains(se.out, dst) {
		return false
	}
	se.out = append(se.out, dst)

	de, _ := db.nodes.Get(dst)
	de.in = append(de.in, src)

	db.edges++
	return true
}

// RemoveEdge deletes the directed edge src->dst, if present.
func (db *DB) RemoveEdge(src, dst NodeID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	se, ok := db.nodes.Get(src)
	if !ok || !slices.Contains(se.out, dst) {
		return false
	}
	se.out = removeID(se.out, dst)

	if de, ok := db.nodes.Get(dst); ok {
		de.in = removeID(de.in, src)
	}

	db.edges--
	return true
}

// HasNode reports whether the node is known to the graph.
func (db *DB) HasNode(id NodeID) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.nodes.Get(id)
	return ok
}

// Neighbors returns a copy of the outgoing adjacency of a node, in edge
// insertion order. An unknown node yields nil, the same as a node without
// outgoing edges: absence of neighbors is not an error.
func (db *DB) Neighbors(id NodeID) []NodeID {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.nodes.Get(id)
	if !ok || len(entry.out) == 0 {
		return nil
	}
	return slices.Clone(entry.out)
}

// Incoming returns a copy of the sources of all edges pointing at a node.
func (db *DB) Incoming(id NodeID) []NodeID {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.nodes.Get(id)
	if !ok || len(entry.in) == 0 {
		return nil
	}
	return slices.Clone(entry.in)
}

// NodeCount returns the number of nodes in the graph.
func (db *DB) NodeCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.nodes.Len()
}

// EdgeCount returns the number of directed edges in the graph.
func (db *DB) EdgeCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.edges
}

// Nodes returns all node ids in ascending order.
func (db *DB) Nodes() []NodeID {
	db.mu.RLock()
	defer db.mu.RUnlock()

	ids := make([]NodeID, 0, db.nodes.Len())
	db.nodes.Scan(func(id NodeID, _ *nodeEntry) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Edge is a directed src->dst pair, used by Dump and the snapshot format.
type Edge struct {
	Source NodeID
	Target NodeID
}

// Dump returns the full state under a single read lock: all node ids in
// ascending order and all edges, grouped by source (ascending) with targets
// in insertion order. Snapshotting and AOF rewriting rely on this being
// deterministic.
func (db *DB) Dump() ([]NodeID, []Edge) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	nodes := make([]NodeID, 0, db.nodes.Len())
	edges := make([]Edge, 0, db.edges)
	db.nodes.Scan(func(id NodeID, entry *nodeEntry) bool {
		nodes = append(nodes, id)
		for _, dst := range entry.out {
			edges = append(edges, Edge{Source: id, Target: dst})
		}
		return true
	})
	return nodes, edges
}

// IterateEdges calls fn for every edge in the same deterministic order as
// Dump, stopping early if fn returns false.
func (db *DB) IterateEdges(fn func(Edge) bool) {
	_, edges := db.Dump()
	for _, e := range edges {
		if !fn(e) {
			return
		}
	}
}

// removeID deletes the first occurrence of id, preserving order of the rest.
func removeID(list []NodeID, id NodeID) []NodeID {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
