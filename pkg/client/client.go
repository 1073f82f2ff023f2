// Package client provides a Go client for the GrafoDB HTTP API.
//
// It offers a type-safe way to perform all major operations, including:
//   - Node management (Add, Info, Remove).
//   - Edge management (Link, Unlink).
//   - Path queries (FindPath, ShortestPath, Reachable).
//   - Graph analysis (Stats, Components).
//   - System administration (Save, AOF Rewrite, Task Status).
//
// The client handles HTTP communication, JSON serialization, bearer-token
// authentication, and standardized error handling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Custom Errors ---

// APIError represents an error returned by the GrafoDB API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

// NodeInfo describes a node and its adjacency.
type NodeInfo struct {
	ID        int64   `json:"id"`
	Neighbors []int64 `json:"neighbors"`
	Incoming  []int64 `json:"incoming"`
}

// pathResponse models the response of the path endpoints.
type pathResponse struct {
	Found bool    `json:"found"`
	Path  []int64 `json:"path"`
	Hops  int     `json:"hops"`
}

// reachableResponse models the response of the reachability endpoint.
type reachableResponse struct {
	Count int     `json:"count"`
	Nodes []int64 `json:"nodes"`
}

// GraphStats summarizes the stored graph.
type GraphStats struct {
	Nodes      int  `json:"nodes"`
	Edges      int  `json:"edges"`
	Components int  `json:"components"`
	HasCycle   bool `json:"has_cycle"`
}

// componentsResponse models the response of the components endpoint.
type componentsResponse struct {
	Count      int       `json:"count"`
	Components [][]int64 `json:"components"`
}

// taskStartedResponse acknowledges an asynchronous operation.
type taskStartedResponse struct {
	TaskID string `json:"task_id"`
}

// Task represents an asynchronous operation on the GrafoDB server.
type Task struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	client *Client // Reference to the client for polling.
}

// --- Client ---

// Client is the Go client for interacting with GrafoDB.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// New creates a new GrafoDB client.
func New(host string, port int) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithToken returns the client configured to send the given bearer token on
// every request.
func (c *Client) WithToken(token string) *Client {
	c.authToken = token
	return c
}

// jsonRequest is a helper method to execute all requests to the API.
// It handles JSON serialization, HTTP calls, and error management.
func (c *Client) jsonRequest(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// --- Node Methods ---

// NodeAdd registers a node.
func (c *Client) NodeAdd(id int64) error {
	_, err := c.jsonRequest(http.MethodPost, "/graph/nodes", map[string]int64{"id": id})
	return err
}

// NodeInfo retrieves a node and its adjacency.
func (c *Client) NodeInfo(id int64) (*NodeInfo, error) {
	respBody, err := c.jsonRequest(http.MethodGet, fmt.Sprintf("/graph/nodes/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var info NodeInfo
	if err := json.Unmarshal(respBody, &info); err != nil {
		return nil, fmt.Errorf("invalid JSON response for NodeInfo: %w", err)
	}
	return &info, nil
}

// NodeRemove deletes a node and its incident edges.
func (c *Client) NodeRemove(id int64) error {
	_, err := c.jsonRequest(http.MethodDelete, fmt.Sprintf("/graph/nodes/%d", id), nil)
	return err
}

// --- Edge Methods ---

type linkRequest struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Link creates the directed edge source -> target.
func (c *Client) Link(source, target int64) error {
	_, err := c.jsonRequest(http.MethodPost, "/graph/actions/link", linkRequest{source, target})
	return err
}

// Unlink removes the directed edge source -> target.
func (c *Client) Unlink(source, target int64) error {
	_, err := c.jsonRequest(http.MethodPost, "/graph/actions/unlink", linkRequest{source, target})
	return err
}

// --- Search Methods ---

// FindPath returns a path from source to target, or nil when the target is
// unreachable. Absence is not an error.
func (c *Client) FindPath(source, target int64) ([]int64, error) {
	return c.pathQuery("/graph/actions/path", source, target)
}

// ShortestPath returns a minimum-hop path from source to target, or nil when
// the target is unreachable.
func (c *Client) ShortestPath(source, target int64) ([]int64, error) {
	return c.pathQuery("/graph/actions/shortest-path", source, target)
}

func (c *Client) pathQuery(endpoint string, source, target int64) ([]int64, error) {
	respBody, err := c.jsonRequest(http.MethodPost, endpoint, linkRequest{source, target})
	if err != nil {
		return nil, err
	}

	var resp pathResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for path query: %w", err)
	}
	if !resp.Found {
		return nil, nil
	}
	return resp.Path, nil
}

// Reachable lists the nodes reachable from source within maxDepth hops.
// maxDepth <= 0 means no limit.
func (c *Client) Reachable(source int64, maxDepth int) ([]int64, error) {
	payload := map[string]any{"source": source, "max_depth": maxDepth}
	respBody, err := c.jsonRequest(http.MethodPost, "/graph/actions/reachable", payload)
	if err != nil {
		return nil, err
	}

	var resp reachableResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for Reachable: %w", err)
	}
	return resp.Nodes, nil
}

// --- Analysis Methods ---

// Stats summarizes the stored graph.
func (c *Client) Stats() (*GraphStats, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/graph/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats GraphStats
	if err := json.Unmarshal(respBody, &stats); err != nil {
		return nil, fmt.Errorf("invalid JSON response for Stats: %w", err)
	}
	return &stats, nil
}

// Components lists the strongly connected components of the graph.
func (c *Client) Components() ([][]int64, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/graph/components", nil)
	if err != nil {
		return nil, err
	}

	var resp componentsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for Components: %w", err)
	}
	return resp.Components, nil
}

// --- System Methods ---

// Save asks the server to write a snapshot synchronously.
func (c *Client) Save() error {
	_, err := c.jsonRequest(http.MethodPost, "/system/save", nil)
	return err
}

// AOFRewrite starts an asynchronous log compaction and returns a pollable
// task.
func (c *Client) AOFRewrite() (*Task, error) {
	respBody, err := c.jsonRequest(http.MethodPost, "/system/aof-rewrite", nil)
	if err != nil {
		return nil, err
	}

	var started taskStartedResponse
	if err := json.Unmarshal(respBody, &started); err != nil {
		return nil, fmt.Errorf("invalid JSON response for AOFRewrite: %w", err)
	}
	return &Task{ID: started.TaskID, Status: "started", client: c}, nil
}

// GetTaskStatus retrieves the status of a long-running task.
func (c *Client) GetTaskStatus(taskID string) (*Task, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/system/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("invalid JSON response for GetTaskStatus: %w", err)
	}
	task.client = c
	return &task, nil
}

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh() error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTaskStatus(t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.Error = updated.Error
	return nil
}

// Wait blocks until the task completes, checking its status at regular
// intervals.
func (t *Task) Wait(interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running", "started":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}
