package core

import "slices"

// FindPath returns any valid directed path from start to end, as the ordered
// list of node ids traversed (start first, end last), together with a flag
// reporting whether such a path exists. The path is not necessarily the
// shortest one, but it is deterministic: the search expands the outgoing
// edges of each node in their listed (insertion) order, so a fixed graph
// always yields the same path.
//
// Semantics:
//   - start == end returns [start] even when the id is unknown to the graph:
//     the trivial path needs no edges.
//   - An unknown start or a start without outgoing edges yields no path.
//     Unknown ids are treated as nodes with no neighbors, never as errors.
//   - "No path" is a normal outcome, reported as (nil, false).
//
// The search is an iterative depth-first traversal with an explicit stack
// and a visited set, so it terminates on cyclic graphs and does not depend
// on call-stack depth for large ones.
func (db *DB) FindPath(start, end NodeID) ([]NodeID, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if start == end {
		return []NodeID{start}, true
	}
	entry, ok := db.nodes.Get(start)
	if !ok || len(entry.out) == 0 {
		return nil, false
	}

	visited := map[NodeID]bool{}
	parent := map[NodeID]NodeID{}
	stack := []NodeID{start}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[curr] {
			continue
		}
		visited[curr] = true

		if curr == end {
			return rebuildPath(parent, start, end), true
		}

		e, ok := db.nodes.Get(curr)
		if !ok {
			continue
		}
		// Push in reverse so the first listed neighbor is expanded first.
		for i := len(e.out) - 1; i >= 0; i-- {
			nb := e.out[i]
			if visited[nb] {
				continue
			}
			// Keep the first recorded parent: it was expanded earlier, so
			// its chain back to start is already a valid path.
			if _, seen := parent[nb]; !seen {
				parent[nb] = curr
			}
			stack = append(stack, nb)
		}
	}

	// Every reachable node was expanded without meeting end.
	return nil, false
}

// ShortestPath returns a minimum-hop directed path from start to end using a
// bidirectional breadth-first search: a forward frontier over outgoing edges
// and a backward frontier over incoming edges, meeting in the middle. Like
// FindPath, absence of a path is a normal (nil, false) outcome and unknown
// ids are treated as isolated.
func (db *DB) ShortestPath(start, end NodeID) ([]NodeID, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if start == end {
		return []NodeID{start}, true
	}
	if _, ok := db.nodes.Get(start); !ok {
		return nil, false
	}
	if _, ok := db.nodes.Get(end); !ok {
		return nil, false
	}

	// Each map doubles as visited set and parent pointer (toward the
	// respective origin). The origins point at themselves as sentinels.
	fwdParent := map[NodeID]NodeID{start: start}
	bwdParent := map[NodeID]NodeID{end: end}
	fwdQueue := []NodeID{start}
	bwdQueue := []NodeID{end}

	for len(fwdQueue) > 0 || len(bwdQueue) > 0 {
		// Forward expansion by one full level.
		if len(fwdQueue) > 0 {
			var next []NodeID
			for _, curr := range fwdQueue {
				e, ok := db.nodes.Get(curr)
				if !ok {
					continue
				}
				for _, nb := range e.out {
					if _, seen := fwdParent[nb]; seen {
						continue
					}
					fwdParent[nb] = curr
					if _, met := bwdParent[nb]; met {
						return joinPaths(fwdParent, bwdParent, start, end, nb), true
					}
					next = append(next, nb)
				}
			}
			fwdQueue = next
		}

		// Backward expansion by one full level, following incoming edges.
		if len(bwdQueue) > 0 {
			var next []NodeID
			for _, curr := range bwdQueue {
				e, ok := db.nodes.Get(curr)
				if !ok {
					continue
				}
				for _, src := range e.in {
					if _, seen := bwdParent[src]; seen {
						continue
					}
					bwdParent[src] = curr
					if _, met := fwdParent[src]; met {
						return joinPaths(fwdParent, bwdParent, start, end, src), true
					}
					next = append(next, src)
				}
			}
			bwdQueue = next
		}
	}

	return nil, false
}

// Reachable returns every node reachable from start by following directed
// edges, in breadth-first order, start included as the first element.
// maxDepth limits the number of hops; zero or negative means no limit.
// An unknown start yields nil.
func (db *DB) Reachable(start NodeID, maxDepth int) []NodeID {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if _, ok := db.nodes.Get(start); !ok {
		return nil
	}

	visited := map[NodeID]bool{start: true}
	result := []NodeID{start}
	queue := []NodeID{start}

	for depth := 0; len(queue) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []NodeID
		for _, curr := range queue {
			e, ok := db.nodes.Get(curr)
			if !ok {
				continue
			}
			for _, nb := range e.out {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				result = append(result, nb)
				next = append(next, nb)
			}
		}
		queue = next
	}
	return result
}

// rebuildPath walks the parent chain from end back to start and reverses it.
func rebuildPath(parent map[NodeID]NodeID, start, end NodeID) []NodeID {
	path := []NodeID{end}
	for curr := end; curr != start; {
		curr = parent[curr]
		path = append(path, curr)
	}
	slices.Reverse(path)
	return path
}

// joinPaths stitches the two halves of a bidirectional search together at
// the meeting node: start -> ... -> meet -> ... -> end.
func joinPaths(fwdParent, bwdParent map[NodeID]NodeID, start, end, meet NodeID) []NodeID {
	path := rebuildPath(fwdParent, start, meet)
	for curr := meet; curr != end; {
		curr = bwdParent[curr]
		path = append(path, curr)
	}
	return path
}
