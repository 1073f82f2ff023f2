package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grafodb/grafo/internal/mcp"
	"github.com/grafodb/grafo/internal/server"
	"github.com/grafodb/grafo/pkg/engine"
)

func main() {
	httpAddr := flag.String("http-addr", ":7841", "Address and port for the REST API server (e.g. :7841)")
	dataDir := flag.String("data-dir", "./data", "Directory for the AOF and snapshot files")
	seedPath := flag.String("seed", "", "Optional YAML file with nodes and edges to pre-load")
	authToken := flag.String("auth-token", os.Getenv("GRAFODB_AUTH_TOKEN"), "Bearer token protecting the API (empty disables auth)")
	mcpMode := flag.Bool("mcp", false, "Serve the Model Context Protocol over stdio instead of HTTP")

	flag.Parse()

	eng, err := engine.Open(engine.DefaultOptions(*dataDir))
	if err != nil {
		slog.Error("failed to open engine", "error", err)
		os.Exit(1)
	}

	if *mcpMode {
		// Stdio transport: the process speaks MCP on stdin/stdout and
		// exits when the client disconnects.
		mcpServer := mcp.NewMCPServer(eng)
		if err := mcpServer.Run(context.Background(), &sdkmcp.StdioTransport{}); err != nil {
			slog.Error("MCP server stopped", "error", err)
		}
		if err := eng.Close(); err != nil {
			slog.Error("failed to close engine", "error", err)
		}
		return
	}

	srv, err := server.NewServer(eng, *httpAddr, *seedPath, *authToken)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownChan

	srv.Shutdown()
	if err := eng.Close(); err != nil {
		slog.Error("failed to close engine", "error", err)
	}
}
