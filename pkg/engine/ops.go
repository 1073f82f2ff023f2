package engine

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/grafodb/grafo/pkg/core"
	"github.com/grafodb/grafo/pkg/metrics"
	"github.com/grafodb/grafo/pkg/persistence"
)

// PathResult is the outcome of a successful path query.
type PathResult struct {
	Source core.NodeID   `json:"source"`
	Target core.NodeID   `json:"target"`
	Path   []core.NodeID `json:"path"`
}

// GraphStats is a point-in-time summary of the stored graph.
type GraphStats struct {
	Nodes      int  `json:"nodes"`
	Edges      int  `json:"edges"`
	Components int  `json:"components"`
	HasCycle   bool `json:"has_cycle"`
}

func formatID(id core.NodeID) []byte {
	return strconv.AppendInt(nil, id, 10)
}

// logCommand appends a mutation to the AOF and flushes it before the change
// is acknowledged.
func (e *Engine) logCommand(name string, args ...[]byte) error {
	if err := e.AOF.Write(persistence.FormatCommand(name, args...)); err != nil {
		return fmt.Errorf("failed to log %s: %w", name, err)
	}
	if err := e.AOF.Flush(); err != nil {
		return fmt.Errorf("failed to flush AOF: %w", err)
	}
	e.dirtyCounter.Add(1)
	return nil
}

func (e *Engine) syncGauges() {
	metrics.NodesTotal.Set(float64(e.DB.NodeCount()))
	metrics.EdgesTotal.Set(float64(e.DB.EdgeCount()))
}

// NodeAdd registers a node. Adding an existing node is a no-op and is not
// logged.
func (e *Engine) NodeAdd(id core.NodeID) (bool, error) {
	e.pauseMu.RLock()
	defer e.pauseMu.RUnlock()

	if e.DB.HasNode(id) {
		return false, nil
	}
	if err := e.logCommand("NADD", formatID(id)); err != nil {
		return false, err
	}
	created := e.DB.AddNode(id)
	e.syncGauges()
	return created, nil
}

// NodeRemove deletes a node together with its incident edges.
func (e *Engine) NodeRemove(id core.NodeID) (bool, error) {
	e.pauseMu.RLock()
	defer e.pauseMu.RUnlock()

	if !e.DB.HasNode(id) {
		return false, nil
	}
	if err := e.logCommand("NDEL", formatID(id)); err != nil {
		return false, err
	}
	removed := e.DB.RemoveNode(id)
	e.syncGauges()
	return removed, nil
}

// Link creates the directed edge src -> dst, registering both endpoints if
// needed. A duplicate edge is a no-op and is not logged.
func (e *Engine) Link(src, dst core.NodeID) (bool, error) {
	e.pauseMu.RLock()
	defer e.pauseMu.RUnlock()

	if slices.Contains(e.DB.Neighbors(src), dst) {
		return false, nil
	}
	if err := e.logCommand("LINK", formatID(src), formatID(dst)); err != nil {
		return false, err
	}
	created := e.DB.AddEdge(src, dst)
	e.syncGauges()
	return created, nil
}

// Unlink removes the directed edge src -> dst. The endpoints stay.
func (e *Engine) Unlink(src, dst core.NodeID) (bool, error) {
	e.pauseMu.RLock()
	defer e.pauseMu.RUnlock()

	if !slices.Contains(e.DB.Neighbors(src), dst) {
		return false, nil
	}
	if err := e.logCommand("UNLINK", formatID(src), formatID(dst)); err != nil {
		return false, err
	}
	removed := e.DB.RemoveEdge(src, dst)
	e.syncGauges()
	return removed, nil
}

// HasNode reports whether id is registered.
func (e *Engine) HasNode(id core.NodeID) bool {
	return e.DB.HasNode(id)
}

// Neighbors returns the outgoing adjacency of id in insertion order.
func (e *Engine) Neighbors(id core.NodeID) []core.NodeID {
	return e.DB.Neighbors(id)
}

// Incoming returns the nodes with an edge into id.
func (e *Engine) Incoming(id core.NodeID) []core.NodeID {
	return e.DB.Incoming(id)
}

// FindPath runs a depth-first search from source to target and returns the
// first path found, or nil when target is unreachable.
func (e *Engine) FindPath(source, target core.NodeID) *PathResult {
	start := time.Now()
	path, found := e.DB.FindPath(source, target)
	e.observePathQuery("find_path", start, found)
	if !found {
		return nil
	}
	return &PathResult{Source: source, Target: target, Path: path}
}

// ShortestPath returns a minimum-hop path from source to target, or nil when
// target is unreachable.
func (e *Engine) ShortestPath(source, target core.NodeID) *PathResult {
	start := time.Now()
	path, found := e.DB.ShortestPath(source, target)
	e.observePathQuery("shortest_path", start, found)
	if !found {
		return nil
	}
	return &PathResult{Source: source, Target: target, Path: path}
}

// Reachable returns every node reachable from source within maxDepth hops
// (maxDepth <= 0 means unlimited), source included.
func (e *Engine) Reachable(source core.NodeID, maxDepth int) []core.NodeID {
	start := time.Now()
	nodes := e.DB.Reachable(source, maxDepth)
	e.observePathQuery("reachable", start, len(nodes) > 0)
	return nodes
}

func (e *Engine) observePathQuery(op string, start time.Time, found bool) {
	outcome := "found"
	if !found {
		outcome = "absent"
	}
	metrics.PathQueriesTotal.WithLabelValues(op, outcome).Inc()
	metrics.PathQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Stats summarizes the current graph, including its strongly connected
// component count and cycle status.
func (e *Engine) Stats() GraphStats {
	return GraphStats{
		Nodes:      e.DB.NodeCount(),
		Edges:      e.DB.EdgeCount(),
		Components: len(e.DB.Components()),
		HasCycle:   e.DB.HasCycle(),
	}
}

// Components returns the strongly connected components of the graph.
func (e *Engine) Components() [][]core.NodeID {
	return e.DB.Components()
}
