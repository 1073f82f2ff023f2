package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"

	"github.com/grafodb/grafo/pkg/core"
	"github.com/grafodb/grafo/pkg/engine"
)

func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", s.router)
}

// router is the main manual router. It inspects the URL and delegates to the
// right handler.
func (s *Server) router(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if strings.HasPrefix(path, "/debug/pprof") {
		switch {
		case path == "/debug/pprof/":
			pprof.Index(w, r)
		case path == "/debug/pprof/cmdline":
			pprof.Cmdline(w, r)
		case path == "/debug/pprof/profile":
			pprof.Profile(w, r)
		case path == "/debug/pprof/symbol":
			pprof.Symbol(w, r)
		case path == "/debug/pprof/trace":
			pprof.Trace(w, r)
		default:
			s.writeHTTPError(w, http.StatusNotFound, "unknown pprof endpoint")
		}
		return
	}

	// --- System endpoints ---
	if path == "/system/save" {
		s.handleSaveHTTP(w, r)
		return
	}
	if path == "/system/aof-rewrite" {
		s.handleAOFRewriteHTTP(w, r)
		return
	}
	if id, ok := strings.CutPrefix(path, "/system/tasks/"); ok {
		s.handleGetTask(w, r, id)
		return
	}

	// --- Graph endpoints ---
	switch path {
	case "/graph/nodes":
		s.handleNodeCreate(w, r)
		return
	case "/graph/actions/link":
		s.handleLink(w, r)
		return
	case "/graph/actions/unlink":
		s.handleUnlink(w, r)
		return
	case "/graph/actions/path":
		s.handleFindPath(w, r)
		return
	case "/graph/actions/shortest-path":
		s.handleShortestPath(w, r)
		return
	case "/graph/actions/reachable":
		s.handleReachable(w, r)
		return
	case "/graph/stats":
		s.handleStats(w, r)
		return
	case "/graph/components":
		s.handleComponents(w, r)
		return
	}

	// URLs with parameters: /graph/nodes/{id}
	if rawID, ok := strings.CutPrefix(path, "/graph/nodes/"); ok {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, fmt.Sprintf("invalid node id %q", rawID))
			return
		}
		s.handleSingleNode(w, r, id)
		return
	}

	s.writeHTTPError(w, http.StatusNotFound, "endpoint not found")
}

// --- Node handlers ---

func (s *Server) handleNodeCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST on /graph/nodes")
		return
	}

	var req NodeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON, expected an object with an 'id' field")
		return
	}

	created, err := s.Engine.NodeAdd(req.ID)
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK", "message": "node already exists"})
		return
	}
	s.writeHTTPResponse(w, http.StatusCreated, map[string]string{"status": "OK"})
}

// handleSingleNode serves GET and DELETE on /graph/nodes/{id}.
func (s *Server) handleSingleNode(w http.ResponseWriter, r *http.Request, id core.NodeID) {
	switch r.Method {
	case http.MethodGet:
		if !s.Engine.HasNode(id) {
			s.writeHTTPError(w, http.StatusNotFound, fmt.Sprintf("node %d not found", id))
			return
		}
		s.writeHTTPResponse(w, http.StatusOK, NodeInfoResponse{
			ID:        id,
			Neighbors: s.Engine.Neighbors(id),
			Incoming:  s.Engine.Incoming(id),
		})
	case http.MethodDelete:
		removed, err := s.Engine.NodeRemove(id)
		if err != nil {
			s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeHTTPError(w, http.StatusNotFound, fmt.Sprintf("node %d not found", id))
			return
		}
		s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK"})
	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "only GET and DELETE are allowed on /graph/nodes/{id}")
	}
}

// --- Edge handlers ---

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !s.decodePost(w, r, &req) {
		return
	}

	created, err := s.Engine.Link(req.Source, req.Target)
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK", "message": "edge already exists"})
		return
	}
	s.writeHTTPResponse(w, http.StatusCreated, map[string]string{"status": "OK"})
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !s.decodePost(w, r, &req) {
		return
	}

	removed, err := s.Engine.Unlink(req.Source, req.Target)
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeHTTPError(w, http.StatusNotFound,
			fmt.Sprintf("edge %d -> %d not found", req.Source, req.Target))
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK"})
}

// --- Search handlers ---

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	s.writePathResponse(w, req, s.Engine.FindPath(req.Source, req.Target))
}

func (s *Server) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	s.writePathResponse(w, req, s.Engine.ShortestPath(req.Source, req.Target))
}

// writePathResponse maps absence to a 200 with found=false. Not finding a
// path is a valid answer, not an error.
func (s *Server) writePathResponse(w http.ResponseWriter, req PathRequest, res *engine.PathResult) {
	resp := PathResponse{Source: req.Source, Target: req.Target}
	if res != nil {
		resp.Found = true
		resp.Path = res.Path
		resp.Hops = len(res.Path) - 1
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleReachable(w http.ResponseWriter, r *http.Request) {
	var req ReachableRequest
	if !s.decodePost(w, r, &req) {
		return
	}

	nodes := s.Engine.Reachable(req.Source, req.MaxDepth)
	s.writeHTTPResponse(w, http.StatusOK, ReachableResponse{
		Source: req.Source,
		Count:  len(nodes),
		Nodes:  nodes,
	})
}

// --- Analysis handlers ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use GET on /graph/stats")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Stats())
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use GET on /graph/components")
		return
	}
	components := s.Engine.Components()
	s.writeHTTPResponse(w, http.StatusOK, ComponentsResponse{
		Count:      len(components),
		Components: components,
	})
}

// --- System handlers ---

func (s *Server) handleSaveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST to start a snapshot save")
		return
	}

	if err := s.Engine.SaveSnapshot(); err != nil {
		slog.Error("snapshot save via HTTP failed", "error", err)
		s.writeHTTPError(w, http.StatusInternalServerError, fmt.Sprintf("snapshot save failed: %v", err))
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK", "message": "snapshot saved"})
}

// handleAOFRewriteHTTP starts the rewrite in the background and returns a
// task id the client can poll.
func (s *Server) handleAOFRewriteHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST to start an AOF rewrite")
		return
	}

	task := s.taskManager.NewTask()
	go func() {
		task.SetStatus(TaskStatusRunning)
		if err := s.Engine.RewriteAOF(); err != nil {
			slog.Error("background AOF rewrite failed", "task_id", task.ID, "error", err)
			task.SetError(err)
			return
		}
		task.SetStatus(TaskStatusCompleted)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, TaskStartedResponse{
		Status: "started",
		TaskID: task.ID,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use GET on /system/tasks/{id}")
		return
	}

	task, found := s.taskManager.GetTask(id)
	if !found {
		s.writeHTTPError(w, http.StatusNotFound, fmt.Sprintf("task %q not found", id))
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

// --- HTTP response helpers ---

// decodePost enforces the POST method and decodes the JSON body into dst.
// It writes the error response itself and reports whether to continue.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
