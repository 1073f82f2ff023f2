// Package engine ties the in-memory graph to the durability layer: every
// mutation is logged to the AOF before being applied, snapshots and AOF
// rewrites compact the log, and a background loop drives the automatic
// maintenance policies.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grafodb/grafo/pkg/core"
	"github.com/grafodb/grafo/pkg/persistence"
)

// Options controls the durability policies of an Engine.
type Options struct {
	// DataDir is the directory holding the AOF and snapshot files.
	DataDir string
	// AofFilename is the name of the append-only log inside DataDir.
	AofFilename string
	// SnapshotFilename is the name of the snapshot file inside DataDir.
	SnapshotFilename string
	// AutoSaveInterval is the minimum time between automatic snapshots.
	// Zero disables time-based snapshots.
	AutoSaveInterval time.Duration
	// AutoSaveThreshold is the number of logged mutations that triggers an
	// automatic snapshot. Zero disables count-based snapshots.
	AutoSaveThreshold int
	// AofRewritePercentage triggers an AOF rewrite when the log has grown
	// by this percentage over its size after the last rewrite. Zero
	// disables automatic rewrites.
	AofRewritePercentage int
}

// DefaultOptions returns the standard durability policy for dataDir:
// snapshot every minute or every 1000 mutations, rewrite the AOF once it
// doubles in size.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:              dataDir,
		AofFilename:          "grafodb.aof",
		SnapshotFilename:     "grafodb.gdb",
		AutoSaveInterval:     60 * time.Second,
		AutoSaveThreshold:    1000,
		AofRewritePercentage: 100,
	}
}

// Engine is a durable graph store. All methods are safe for concurrent use.
type Engine struct {
	DB  *core.DB
	AOF *persistence.LazyAOFWriter

	opts     Options
	aofPath  string
	snapPath string

	// adminMu serializes snapshot saves and AOF rewrites.
	adminMu sync.Mutex
	// pauseMu holds mutations off while a snapshot or rewrite captures
	// state and replaces the log. A command logged inside that window
	// would be applied in memory but missing from the log after restart.
	pauseMu      sync.RWMutex
	dirtyCounter atomic.Int64
	aofBaseSize  atomic.Int64
	lastSaveTime atomic.Int64 // unix nanos

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open loads the graph from dataDir (snapshot first, then AOF replay) and
// starts the background maintenance loop.
func Open(opts Options) (*Engine, error) {
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	e := &Engine{
		DB:       core.NewDB(),
		opts:     opts,
		aofPath:  filepath.Join(opts.DataDir, opts.AofFilename),
		snapPath: filepath.Join(opts.DataDir, opts.SnapshotFilename),
		closed:   make(chan struct{}),
	}

	if err := e.loadSnapshot(); err != nil {
		return nil, err
	}
	if err := e.replayAOF(); err != nil {
		return nil, err
	}

	aof, err := persistence.NewLazyAOFWriter(e.aofPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open AOF: %w", err)
	}
	e.AOF = aof

	if info, err := aof.File().Stat(); err == nil {
		e.aofBaseSize.Store(info.Size())
	}
	e.lastSaveTime.Store(time.Now().UnixNano())
	e.syncGauges()

	slog.Info("engine opened",
		"data_dir", opts.DataDir,
		"nodes", e.DB.NodeCount(),
		"edges", e.DB.EdgeCount())

	e.wg.Add(1)
	go e.backgroundTasks()
	return e, nil
}

// Close stops background maintenance and flushes the AOF. Safe to call more
// than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		e.wg.Wait()
		err = e.AOF.Close()
	})
	return err
}

func (e *Engine) backgroundTasks() {
	defer e.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.checkMaintenance()
		case <-e.closed:
			return
		}
	}
}

func (e *Engine) checkMaintenance() {
	dirty := e.dirtyCounter.Load()
	lastSave := time.Unix(0, e.lastSaveTime.Load())

	saveDue := (e.opts.AutoSaveThreshold > 0 && dirty >= int64(e.opts.AutoSaveThreshold)) ||
		(e.opts.AutoSaveInterval > 0 && dirty > 0 && time.Since(lastSave) >= e.opts.AutoSaveInterval)
	if saveDue {
		slog.Info("auto-save triggered", "dirty_mutations", dirty)
		if err := e.SaveSnapshot(); err != nil {
			slog.Error("auto-save failed", "error", err)
		}
		return
	}

	if e.opts.AofRewritePercentage > 0 {
		if info, err := e.AOF.File().Stat(); err == nil {
			base := e.aofBaseSize.Load()
			if base < 1024 {
				base = 1024 // avoid rewrite storms on tiny logs
			}
			growth := (info.Size() - base) * 100 / base
			if growth >= int64(e.opts.AofRewritePercentage) {
				slog.Info("auto AOF rewrite triggered",
					"size", info.Size(), "base_size", base)
				if err := e.RewriteAOF(); err != nil {
					slog.Error("auto AOF rewrite failed", "error", err)
				}
			}
		}
	}
}
