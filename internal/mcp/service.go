package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grafodb/grafo/pkg/core"
	"github.com/grafodb/grafo/pkg/engine"
)

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// --- Tool Handlers ---

func (s *Service) ConnectNodes(ctx context.Context, req *mcp.CallToolRequest, args ConnectNodesArgs) (*mcp.CallToolResult, ConnectNodesResult, error) {
	created, err := s.engine.Link(args.SourceID, args.TargetID)
	if err != nil {
		return nil, ConnectNodesResult{}, err
	}
	status := "created"
	if !created {
		status = "already connected"
	}
	return nil, ConnectNodesResult{Status: status}, nil
}

func (s *Service) FindPath(ctx context.Context, req *mcp.CallToolRequest, args FindPathArgs) (*mcp.CallToolResult, FindPathResult, error) {
	var res *engine.PathResult
	if args.Shortest {
		res = s.engine.ShortestPath(args.SourceID, args.TargetID)
	} else {
		res = s.engine.FindPath(args.SourceID, args.TargetID)
	}

	if res == nil {
		return nil, FindPathResult{
			Found:           false,
			PathDescription: fmt.Sprintf("No path exists from %d to %d.", args.SourceID, args.TargetID),
		}, nil
	}

	return nil, FindPathResult{
		Found:           true,
		PathDescription: describePath(res.Path),
		Hops:            len(res.Path) - 1,
	}, nil
}

func (s *Service) ExploreNode(ctx context.Context, req *mcp.CallToolRequest, args ExploreNodeArgs) (*mcp.CallToolResult, ExploreNodeResult, error) {
	if !s.engine.HasNode(args.NodeID) {
		return nil, ExploreNodeResult{
			Description: fmt.Sprintf("Node %d is not in the graph.", args.NodeID),
		}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Node %d.\n", args.NodeID)
	if out := s.engine.Neighbors(args.NodeID); len(out) > 0 {
		fmt.Fprintf(&sb, "Outgoing edges to: %s.\n", describeIDs(out))
	} else {
		sb.WriteString("No outgoing edges.\n")
	}
	if in := s.engine.Incoming(args.NodeID); len(in) > 0 {
		fmt.Fprintf(&sb, "Incoming edges from: %s.\n", describeIDs(in))
	} else {
		sb.WriteString("No incoming edges.\n")
	}

	return nil, ExploreNodeResult{Description: sb.String()}, nil
}

func (s *Service) GraphStats(ctx context.Context, req *mcp.CallToolRequest, args GraphStatsArgs) (*mcp.CallToolResult, GraphStatsResult, error) {
	stats := s.engine.Stats()
	return nil, GraphStatsResult{
		Nodes:      stats.Nodes,
		Edges:      stats.Edges,
		Components: stats.Components,
		HasCycle:   stats.HasCycle,
	}, nil
}

// describePath renders a path as "1 -> 2 -> 5" for the LLM.
func describePath(path []core.NodeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " -> ")
}

func describeIDs(ids []core.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
