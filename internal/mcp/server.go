// Package mcp exposes the graph engine as a set of Model Context Protocol
// tools, so an LLM agent can build and query the graph directly.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grafodb/grafo/pkg/engine"
)

func NewMCPServer(eng *engine.Engine) *mcp.Server {
	service := NewService(eng)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "GrafoDB",
		Version: "0.3.1",
	}, nil)

	// Register tools using the generic AddTool which inspects structs.

	mcp.AddTool(s, &mcp.Tool{
		Name:        "connect_nodes",
		Description: "Create a directed edge between two nodes, registering them if they do not exist yet.",
	}, service.ConnectNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "find_path",
		Description: "Discover how two nodes are connected by following directed edges (pathfinding).",
	}, service.FindPath)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "explore_node",
		Description: "Inspect the neighborhood of a node: its outgoing and incoming edges.",
	}, service.ExploreNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Summarize the graph: node and edge counts, strongly connected components, cycle status.",
	}, service.GraphStats)

	return s
}
