package server

import (
	"github.com/grafodb/grafo/pkg/core"
)

// NodeCreateRequest defines the body for node registration.
type NodeCreateRequest struct {
	ID core.NodeID `json:"id"`
}

// NodeInfoResponse describes a single node and its adjacency.
type NodeInfoResponse struct {
	ID        core.NodeID   `json:"id"`
	Neighbors []core.NodeID `json:"neighbors"`
	Incoming  []core.NodeID `json:"incoming"`
}

// LinkRequest defines the body for edge creation and removal.
type LinkRequest struct {
	Source core.NodeID `json:"source"`
	Target core.NodeID `json:"target"`
}

// PathRequest defines the body for path searches.
type PathRequest struct {
	Source core.NodeID `json:"source"`
	Target core.NodeID `json:"target"`
}

// PathResponse reports the outcome of a path search. An unreachable target
// is not an error: Found is false and Path is omitted.
type PathResponse struct {
	Found  bool          `json:"found"`
	Source core.NodeID   `json:"source"`
	Target core.NodeID   `json:"target"`
	Path   []core.NodeID `json:"path,omitempty"`
	Hops   int           `json:"hops,omitempty"`
}

// ReachableRequest defines the body for reachability queries. MaxDepth <= 0
// means no depth limit.
type ReachableRequest struct {
	Source   core.NodeID `json:"source"`
	MaxDepth int         `json:"max_depth,omitempty"`
}

// ReachableResponse lists the nodes reachable from the source, source
// included, in visit order.
type ReachableResponse struct {
	Source core.NodeID   `json:"source"`
	Count  int           `json:"count"`
	Nodes  []core.NodeID `json:"nodes"`
}

// ComponentsResponse lists the strongly connected components of the graph.
type ComponentsResponse struct {
	Count      int             `json:"count"`
	Components [][]core.NodeID `json:"components"`
}

// TaskStartedResponse acknowledges an asynchronous operation.
type TaskStartedResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}
