package mcp

// --- Tool Arguments ---

type ConnectNodesArgs struct {
	SourceID int64 `json:"source_id" jsonschema:"description=Start node of the directed edge,required"`
	TargetID int64 `json:"target_id" jsonschema:"description=End node of the directed edge,required"`
}

type ConnectNodesResult struct {
	Status string `json:"status"`
}

type FindPathArgs struct {
	SourceID int64 `json:"source_id" jsonschema:"description=Start node ID,required"`
	TargetID int64 `json:"target_id" jsonschema:"description=End node ID,required"`
	Shortest bool  `json:"shortest,omitempty" jsonschema:"description=If true, return a minimum-hop path instead of the first path found."`
}

type FindPathResult struct {
	Found           bool   `json:"found"`
	PathDescription string `json:"path_description"` // "1 -> 2 -> 5"
	Hops            int    `json:"hops,omitempty"`
}

type ExploreNodeArgs struct {
	NodeID int64 `json:"node_id" jsonschema:"required"`
}

type ExploreNodeResult struct {
	Description string `json:"description"` // Textual description of the neighborhood
}

type GraphStatsArgs struct{}

type GraphStatsResult struct {
	Nodes      int  `json:"nodes"`
	Edges      int  `json:"edges"`
	Components int  `json:"components"`
	HasCycle   bool `json:"has_cycle"`
}
