package core

import (
	"bytes"
	"slices"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	db := sampleGraph()

	var buf bytes.Buffer
	if err := db.Snapshot(&buf); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	restored := NewDB()
	restored.AddEdge(100, 200) // pre-existing state must be replaced
	if err := restored.LoadFromSnapshot(&buf); err != nil {
		t.Fatalf("LoadFromSnapshot failed: %v", err)
	}

	if restored.NodeCount() != db.NodeCount() || restored.EdgeCount() != db.EdgeCount() {
		t.Errorf("restored %d nodes / %d edges, want %d / %d",
			restored.NodeCount(), restored.EdgeCount(), db.NodeCount(), db.EdgeCount())
	}
	if restored.HasNode(100) {
		t.Error("pre-existing state survived the load")
	}

	// Neighbor order is part of the search contract and must survive.
	for _, id := range db.Nodes() {
		if !slices.Equal(restored.Neighbors(id), db.Neighbors(id)) {
			t.Errorf("Neighbors(%d) = %v after restore, want %v",
				id, restored.Neighbors(id), db.Neighbors(id))
		}
	}

	// Searches on the restored graph behave identically.
	want, _ := db.FindPath(6, 5)
	got, found := restored.FindPath(6, 5)
	if !found || !slices.Equal(got, want) {
		t.Errorf("FindPath(6, 5) = %v after restore, want %v", got, want)
	}
}

func TestLoadFromSnapshotGarbage(t *testing.T) {
	db := NewDB()
	if err := db.LoadFromSnapshot(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Error("expected an error decoding garbage input")
	}
}
