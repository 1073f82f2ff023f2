// Snapshotting: full-state serialization of the graph for fast restarts.
// The engine wraps the gob payload produced here in a CRC-checked binary
// frame before it reaches disk.
package core

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/tidwall/btree"
)

// graphSnapshot is the serializable state of the whole graph.
// Adjacency preserves edge insertion order per source node, which is part
// of the search contract and must survive a save/load cycle.
type graphSnapshot struct {
	Nodes     []NodeID
	Adjacency map[NodeID][]NodeID
}

// Snapshot writes the complete state of the graph to w using gob encoding.
// The state is captured atomically under a single read lock.
func (db *DB) Snapshot(w io.Writer) error {
	nodes, edges := db.Dump()

	snap := graphSnapshot{
		Nodes:     nodes,
		Adjacency: make(map[NodeID][]NodeID),
	}
	for _, e := range edges {
		snap.Adjacency[e.Source] = append(snap.Adjacency[e.Source], e.Target)
	}

	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// LoadFromSnapshot replaces the current state of the graph with the one
// decoded from r. It is meant to run on a fresh DB during engine startup,
// before the AOF replay fills in whatever the snapshot predates.
func (db *DB) LoadFromSnapshot(r io.Reader) error {
	var snap graphSnapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.nodes = btree.Map[NodeID, *nodeEntry]{}
	db.edges = 0
	for _, id := range snap.Nodes {
		db.addNodeLocked(id)
	}
	for _, src := range snap.Nodes {
		for _, dst := range snap.Adjacency[src] {
			se, _ := db.nodes.Get(src)
			se.out = append(se.out, dst)
			de, ok := db.nodes.Get(dst)
			if !ok {
				// Tolerate edge targets missing from the node list.
				db.addNodeLocked(dst)
				de, _ = db.nodes.Get(dst)
			}
			de.in = append(de.in, src)
			db.edges++
		}
	}
	return nil
}
