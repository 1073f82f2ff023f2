package engine

import (
	"slices"
	"testing"

	"github.com/grafodb/grafo/pkg/core"
)

func openTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	opts := DefaultOptions(dir)
	// Keep maintenance quiet during tests.
	opts.AutoSaveInterval = 0
	opts.AutoSaveThreshold = 0
	opts.AofRewritePercentage = 0

	e, err := Open(opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return e
}

func TestEngineReplayAfterRestart(t *testing.T) {
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	e.Link(1, 2)
	e.Link(2, 5)
	e.Link(1, 4)
	e.NodeAdd(9)
	e.Unlink(1, 4)
	e.NodeRemove(9)
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	e = openTestEngine(t, dir)
	defer e.Close()

	if e.DB.NodeCount() != 4 || e.DB.EdgeCount() != 2 {
		t.Errorf("got %d nodes / %d edges after replay, want 4 / 2",
			e.DB.NodeCount(), e.DB.EdgeCount())
	}
	if got := e.Neighbors(1); !slices.Equal(got, []core.NodeID{2}) {
		t.Errorf("Neighbors(1) = %v after replay, want [2]", got)
	}
	if e.HasNode(9) {
		t.Error("removed node 9 came back after replay")
	}
}

func TestEngineSnapshotAndRestart(t *testing.T) {
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	e.Link(1, 2)
	e.Link(2, 3)
	if err := e.SaveSnapshot(); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	// Mutations after the snapshot land in the fresh AOF.
	e.Link(3, 4)
	e.Close()

	e = openTestEngine(t, dir)
	defer e.Close()

	if e.DB.NodeCount() != 4 || e.DB.EdgeCount() != 3 {
		t.Errorf("got %d nodes / %d edges, want 4 / 3",
			e.DB.NodeCount(), e.DB.EdgeCount())
	}
	res := e.FindPath(1, 4)
	if res == nil || !slices.Equal(res.Path, []core.NodeID{1, 2, 3, 4}) {
		t.Errorf("FindPath(1, 4) = %v, want the full chain", res)
	}
}

func TestEngineRewriteAOF(t *testing.T) {
	dir := t.TempDir()

	e := openTestEngine(t, dir)
	// Churn that a rewrite should compact away.
	e.Link(1, 2)
	e.Link(1, 3)
	e.Unlink(1, 3)
	e.NodeRemove(3)
	if err := e.RewriteAOF(); err != nil {
		t.Fatalf("RewriteAOF failed: %v", err)
	}
	e.Close()

	e = openTestEngine(t, dir)
	defer e.Close()

	if e.DB.NodeCount() != 2 || e.DB.EdgeCount() != 1 {
		t.Errorf("got %d nodes / %d edges after rewrite replay, want 2 / 1",
			e.DB.NodeCount(), e.DB.EdgeCount())
	}
	if e.HasNode(3) {
		t.Error("node 3 should not survive the rewrite")
	}
}

func TestEngineSnapshotDuringMutationsLosesNothing(t *testing.T) {
	dir := t.TempDir()
	e := openTestEngine(t, dir)

	// Snapshots race with a mutation storm. Every edge acknowledged before
	// Close must survive the restart, whether it landed in a snapshot or in
	// the log segment written after the matching truncate.
	const n = 500
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(0); i < n; i++ {
			if _, err := e.Link(i, i+1); err != nil {
				t.Errorf("Link(%d, %d) failed: %v", i, i+1, err)
				return
			}
		}
	}()
	for i := 0; i < 10; i++ {
		if err := e.SaveSnapshot(); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}
	<-done
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	e = openTestEngine(t, dir)
	defer e.Close()

	if got := e.DB.EdgeCount(); got != n {
		t.Fatalf("recovered %d edges, want %d: mutations fell into a discarded log segment", got, n)
	}
	for i := int64(0); i < n; i++ {
		if got := e.Neighbors(i); !slices.Equal(got, []core.NodeID{i + 1}) {
			t.Fatalf("Neighbors(%d) = %v after restart, want [%d]", i, got, i+1)
		}
	}
}

func TestEngineDuplicateMutationsAreNoOps(t *testing.T) {
	e := openTestEngine(t, t.TempDir())
	defer e.Close()

	if created, _ := e.Link(1, 2); !created {
		t.Fatal("first Link(1, 2) should create the edge")
	}
	if created, _ := e.Link(1, 2); created {
		t.Error("duplicate Link(1, 2) should be a no-op")
	}
	if created, _ := e.NodeAdd(1); created {
		t.Error("NodeAdd on an existing node should be a no-op")
	}
	if removed, _ := e.Unlink(2, 1); removed {
		t.Error("Unlink on a missing edge should be a no-op")
	}
	if removed, _ := e.NodeRemove(42); removed {
		t.Error("NodeRemove on an unknown node should be a no-op")
	}
}

func TestEnginePathQueries(t *testing.T) {
	e := openTestEngine(t, t.TempDir())
	defer e.Close()

	for _, edge := range [][2]core.NodeID{
		{1, 2}, {1, 4}, {2, 5}, {2, 4}, {2, 1}, {4, 6}, {4, 3}, {6, 1}, {6, 3},
	} {
		e.Link(edge[0], edge[1])
	}

	if res := e.FindPath(1, 3); res == nil {
		t.Error("FindPath(1, 3) should find a path")
	}
	if res := e.FindPath(5, 1); res != nil {
		t.Errorf("FindPath(5, 1) = %v, want nil for a sink start", res)
	}
	if res := e.ShortestPath(1, 3); res == nil || len(res.Path) != 3 {
		t.Errorf("ShortestPath(1, 3) = %v, want a 3-node path", res)
	}
	if got := e.Reachable(4, 1); !slices.Equal(got, []core.NodeID{4, 6, 3}) {
		t.Errorf("Reachable(4, 1) = %v, want [4 6 3]", got)
	}

	stats := e.Stats()
	if stats.Nodes != 6 || stats.Edges != 9 || !stats.HasCycle {
		t.Errorf("Stats() = %+v, want 6 nodes, 9 edges, cyclic", stats)
	}
}
