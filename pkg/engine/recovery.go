package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/grafodb/grafo/pkg/core"
	"github.com/grafodb/grafo/pkg/persistence"
)

// loadSnapshot restores the graph from the snapshot file, if one exists.
func (e *Engine) loadSnapshot() error {
	f, err := os.Open(e.snapPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	opcode, payload, err := persistence.ReadFrame(f)
	if err != nil {
		return fmt.Errorf("failed to read snapshot frame: %w", err)
	}
	if opcode != persistence.OpCodeSnapshot {
		return fmt.Errorf("unexpected opcode %#x in snapshot file", opcode)
	}
	if err := e.DB.LoadFromSnapshot(bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	slog.Info("snapshot loaded",
		"nodes", e.DB.NodeCount(), "edges", e.DB.EdgeCount())
	return nil
}

// replayAOF applies the command log on top of the snapshot state. A truncated
// tail is tolerated: the process may have died mid-write, and everything
// before the damage is still valid.
func (e *Engine) replayAOF() error {
	f, err := os.Open(e.aofPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open AOF: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	applied := 0
	for {
		cmd, err := persistence.ParseCommand(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("stopping AOF replay on damaged entry",
				"applied", applied, "error", err)
			break
		}
		if err := e.applyCommand(cmd); err != nil {
			return fmt.Errorf("failed to replay command %d: %w", applied, err)
		}
		applied++
	}

	if applied > 0 {
		slog.Info("AOF replayed", "commands", applied)
	}
	return nil
}

func (e *Engine) applyCommand(cmd *persistence.Command) error {
	ids := make([]core.NodeID, len(cmd.Args))
	for i, arg := range cmd.Args {
		id, err := strconv.ParseInt(string(arg), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid node id %q in %s", arg, cmd.Name)
		}
		ids[i] = id
	}

	switch cmd.Name {
	case "NADD":
		if len(ids) != 1 {
			return fmt.Errorf("NADD expects 1 argument, got %d", len(ids))
		}
		e.DB.AddNode(ids[0])
	case "NDEL":
		if len(ids) != 1 {
			return fmt.Errorf("NDEL expects 1 argument, got %d", len(ids))
		}
		e.DB.RemoveNode(ids[0])
	case "LINK":
		if len(ids) != 2 {
			return fmt.Errorf("LINK expects 2 arguments, got %d", len(ids))
		}
		e.DB.AddEdge(ids[0], ids[1])
	case "UNLINK":
		if len(ids) != 2 {
			return fmt.Errorf("UNLINK expects 2 arguments, got %d", len(ids))
		}
		e.DB.RemoveEdge(ids[0], ids[1])
	default:
		return fmt.Errorf("unknown command %q", cmd.Name)
	}
	return nil
}

// SaveSnapshot persists the whole graph atomically (write to a temp file,
// fsync, rename) and truncates the now-redundant AOF. Mutations are held
// off from the state capture until after the truncate: a command logged in
// between would land in the discarded log segment and be lost on restart.
func (e *Engine) SaveSnapshot() error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()

	start := time.Now()

	var payload bytes.Buffer
	if err := e.DB.Snapshot(&payload); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmpPath := e.snapPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	if err := persistence.WriteFrame(f, persistence.OpCodeSnapshot, payload.Bytes()); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, e.snapPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	// The log content is now covered by the snapshot.
	if err := e.AOF.Truncate(); err != nil {
		return fmt.Errorf("failed to truncate AOF after snapshot: %w", err)
	}

	e.dirtyCounter.Store(0)
	e.aofBaseSize.Store(0)
	e.lastSaveTime.Store(time.Now().UnixNano())

	slog.Info("snapshot saved",
		"path", e.snapPath,
		"bytes", payload.Len(),
		"duration", time.Since(start))
	return nil
}

// RewriteAOF compacts the log by regenerating it from the current graph
// state: one NADD per node and one LINK per edge, then an atomic swap.
// Mutations are held off for the duration: the swap discards the live log,
// so a command logged after the state capture would not survive it.
func (e *Engine) RewriteAOF() error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()

	start := time.Now()
	nodes, edges := e.DB.Dump()

	tmpPath := e.aofPath + ".rewrite"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create rewrite file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, id := range nodes {
		if _, err := w.WriteString(persistence.FormatCommand("NADD", formatID(id))); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write rewrite entry: %w", err)
		}
	}
	for _, edge := range edges {
		if _, err := w.WriteString(persistence.FormatCommand("LINK", formatID(edge.Source), formatID(edge.Target))); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write rewrite entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush rewrite file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync rewrite file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close rewrite file: %w", err)
	}

	if err := e.AOF.ReplaceWith(tmpPath); err != nil {
		return err
	}

	if info, err := e.AOF.File().Stat(); err == nil {
		e.aofBaseSize.Store(info.Size())
	}

	slog.Info("AOF rewritten",
		"nodes", len(nodes),
		"edges", len(edges),
		"duration", time.Since(start))
	return nil
}
