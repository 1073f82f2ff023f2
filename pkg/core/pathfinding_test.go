package core

import (
	"slices"
	"testing"
)

// sampleGraph builds the reference graph used across the path search tests:
//
//	1 -> 2, 4
//	2 -> 5, 4, 1
//	3 -> (none)
//	4 -> 6, 3
//	5 -> (none)
//	6 -> 1, 3
//
// It contains cycles (1->2->1, 1->4->6->1) and two sink nodes (3, 5).
func sampleGraph() *DB {
	db := NewDB()
	adjacency := []struct {
		src NodeID
		out []NodeID
	}{
		{1, []NodeID{2, 4}},
		{2, []NodeID{5, 4, 1}},
		{3, nil},
		{4, []NodeID{6, 3}},
		{5, nil},
		{6, []NodeID{1, 3}},
	}
	for _, a := range adjacency {
		db.AddNode(a.src)
		for _, dst := range a.out {
			db.AddEdge(a.src, dst)
		}
	}
	return db
}

// assertValidPath checks the path invariant: first element is start, last is
// end, and every consecutive pair is a directed edge of the graph.
func assertValidPath(t *testing.T, db *DB, path []NodeID, start, end NodeID) {
	t.Helper()

	if len(path) == 0 {
		t.Fatal("path is empty")
	}
	if path[0] != start {
		t.Errorf("path starts at %d, want %d", path[0], start)
	}
	if path[len(path)-1] != end {
		t.Errorf("path ends at %d, want %d", path[len(path)-1], end)
	}
	for i := 0; i < len(path)-1; i++ {
		if !slices.Contains(db.Neighbors(path[i]), path[i+1]) {
			t.Errorf("%d -> %d is not an edge of the graph", path[i], path[i+1])
		}
	}
}

func TestFindPathScenarios(t *testing.T) {
	db := sampleGraph()

	// The reference scenarios: each pair with whether a path must exist.
	cases := []struct {
		start, end NodeID
		exists     bool
	}{
		{6, 5, true},
		{1, 4, true},
		{3, 2, false}, // node 3 has no outgoing edges
		{2, 1, true},
		{6, 3, true},
		{5, 3, false}, // node 5 has no outgoing edges
		{1, 3, true},
	}

	for _, tc := range cases {
		path, found := db.FindPath(tc.start, tc.end)
		if found != tc.exists {
			t.Errorf("FindPath(%d, %d) found = %v, want %v (path %v)",
				tc.start, tc.end, found, tc.exists, path)
			continue
		}
		if !tc.exists {
			if path != nil {
				t.Errorf("FindPath(%d, %d) returned %v for an absent path", tc.start, tc.end, path)
			}
			continue
		}
		assertValidPath(t, db, path, tc.start, tc.end)
	}
}

func TestFindPathIdentity(t *testing.T) {
	db := sampleGraph()

	// For every node n, the path from n to itself is the singleton [n].
	for _, n := range db.Nodes() {
		path, found := db.FindPath(n, n)
		if !found || !slices.Equal(path, []NodeID{n}) {
			t.Errorf("FindPath(%d, %d) = %v, %v, want [%d], true", n, n, path, found, n)
		}
	}

	// The identity holds even for an id the graph has never seen: the
	// trivial path needs no edges.
	path, found := db.FindPath(99, 99)
	if !found || !slices.Equal(path, []NodeID{99}) {
		t.Errorf("FindPath(99, 99) = %v, %v, want [99], true", path, found)
	}
}

func TestFindPathUnknownNodes(t *testing.T) {
	db := sampleGraph()

	// Unknown ids behave as nodes with no neighbors: no path, no error.
	if path, found := db.FindPath(99, 1); found || path != nil {
		t.Errorf("FindPath from unknown start = %v, %v, want nil, false", path, found)
	}
	if path, found := db.FindPath(1, 99); found || path != nil {
		t.Errorf("FindPath to unknown end = %v, %v, want nil, false", path, found)
	}
}

func TestFindPathCycleTermination(t *testing.T) {
	// Nodes 1 and 2 only point at each other; 3 exists but is unreachable.
	// Without visited tracking this search would never terminate.
	db := NewDB()
	db.AddEdge(1, 2)
	db.AddEdge(2, 1)
	db.AddNode(3)

	path, found := db.FindPath(1, 3)
	if found || path != nil {
		t.Errorf("FindPath(1, 3) = %v, %v, want nil, false", path, found)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	db := sampleGraph()

	first, found := db.FindPath(6, 5)
	if !found {
		t.Fatal("expected a path from 6 to 5")
	}
	for i := 0; i < 10; i++ {
		path, _ := db.FindPath(6, 5)
		if !slices.Equal(path, first) {
			t.Fatalf("FindPath is not deterministic: got %v, then %v", first, path)
		}
	}

	// With neighbors expanded in listed order, the depth-first search from 6
	// follows 6 -> 1 -> 2 -> 5.
	if want := []NodeID{6, 1, 2, 5}; !slices.Equal(first, want) {
		t.Errorf("FindPath(6, 5) = %v, want %v", first, want)
	}
}

func TestFindPathDirectionMatters(t *testing.T) {
	// a->b alone must not imply b->a.
	db := NewDB()
	db.AddEdge(10, 20)

	if _, found := db.FindPath(10, 20); !found {
		t.Error("expected a path along the edge direction")
	}
	if path, found := db.FindPath(20, 10); found {
		t.Errorf("found %v against the edge direction", path)
	}
}

func TestShortestPath(t *testing.T) {
	db := sampleGraph()

	t.Run("MinimalHops", func(t *testing.T) {
		path, found := db.ShortestPath(6, 5)
		if !found {
			t.Fatal("expected a path from 6 to 5")
		}
		assertValidPath(t, db, path, 6, 5)
		// 6 -> 1 -> 2 -> 5 is the only 4-node route; nothing shorter exists.
		if len(path) != 4 {
			t.Errorf("ShortestPath(6, 5) = %v, want 4 nodes", path)
		}
	})

	t.Run("DirectEdge", func(t *testing.T) {
		path, found := db.ShortestPath(6, 3)
		if !found || !slices.Equal(path, []NodeID{6, 3}) {
			t.Errorf("ShortestPath(6, 3) = %v, %v, want [6 3], true", path, found)
		}
	})

	t.Run("Identity", func(t *testing.T) {
		path, found := db.ShortestPath(4, 4)
		if !found || !slices.Equal(path, []NodeID{4}) {
			t.Errorf("ShortestPath(4, 4) = %v, %v, want [4], true", path, found)
		}
	})

	t.Run("Absent", func(t *testing.T) {
		if path, found := db.ShortestPath(3, 2); found {
			t.Errorf("ShortestPath(3, 2) = %v, want no path", path)
		}
	})

	t.Run("UnknownEndpoint", func(t *testing.T) {
		if path, found := db.ShortestPath(1, 42); found {
			t.Errorf("ShortestPath(1, 42) = %v, want no path", path)
		}
	})
}

func TestReachable(t *testing.T) {
	db := sampleGraph()

	t.Run("Full", func(t *testing.T) {
		got := db.Reachable(1, 0)
		want := []NodeID{1, 2, 4, 5, 6, 3}
		if !slices.Equal(got, want) {
			t.Errorf("Reachable(1, 0) = %v, want %v (breadth-first order)", got, want)
		}
	})

	t.Run("DepthLimited", func(t *testing.T) {
		got := db.Reachable(1, 1)
		want := []NodeID{1, 2, 4}
		if !slices.Equal(got, want) {
			t.Errorf("Reachable(1, 1) = %v, want %v", got, want)
		}
	})

	t.Run("Sink", func(t *testing.T) {
		if got := db.Reachable(5, 0); !slices.Equal(got, []NodeID{5}) {
			t.Errorf("Reachable(5, 0) = %v, want [5]", got)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if got := db.Reachable(99, 0); got != nil {
			t.Errorf("Reachable(99, 0) = %v, want nil", got)
		}
	})
}
