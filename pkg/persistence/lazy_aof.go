package persistence

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

const (
	defaultFlushInterval = 100 * time.Millisecond
	defaultSyncInterval  = 1 * time.Second
	defaultMaxBatchSize  = 1000
)

// LazyAOFWriter batches command writes in memory and pushes them to the
// underlying AOFWriter on a timer, trading a bounded durability window for
// much higher mutation throughput.
type LazyAOFWriter struct {
	mu      sync.Mutex
	inner   *AOFWriter
	pending []string

	flushInterval time.Duration
	syncInterval  time.Duration
	maxBatchSize  int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewLazyAOFWriter wraps the AOF at path with the default batching policy:
// flush to the OS every 100ms, fsync every second, and force a flush once
// 1000 commands are pending.
func NewLazyAOFWriter(path string) (*LazyAOFWriter, error) {
	inner, err := NewAOFWriter(path)
	if err != nil {
		return nil, err
	}

	w := &LazyAOFWriter{
		inner:         inner,
		flushInterval: defaultFlushInterval,
		syncInterval:  defaultSyncInterval,
		maxBatchSize:  defaultMaxBatchSize,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Write queues a serialized command. The call returns immediately; the data
// reaches the file on the next flush tick or when the batch fills up.
func (w *LazyAOFWriter) Write(data string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, data)
	if len(w.pending) >= w.maxBatchSize {
		return w.flushLocked()
	}
	return nil
}

// Flush drains the pending batch into the underlying writer and pushes it to
// the OS.
func (w *LazyAOFWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes the batch to the inner writer while still holding mu.
// Draining and writing must stay one critical section: releasing the lock in
// between would let a younger batch reach the file before an older one,
// permuting the log.
func (w *LazyAOFWriter) flushLocked() error {
	for _, data := range w.pending {
		if err := w.inner.Write(data); err != nil {
			return err
		}
	}
	w.pending = nil
	return w.inner.Flush()
}

// Sync drains the batch and forces an fsync.
func (w *LazyAOFWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		return err
	}
	return w.inner.Sync()
}

// Truncate discards both the pending batch and the file content.
func (w *LazyAOFWriter) Truncate() error {
	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()
	return w.inner.Truncate()
}

// ReplaceWith drains pending writes, then swaps the AOF for the file at
// newFilePath.
func (w *LazyAOFWriter) ReplaceWith(newFilePath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		return err
	}
	return w.inner.ReplaceWith(newFilePath)
}

// Path returns the file path of the underlying AOF.
func (w *LazyAOFWriter) Path() string {
	return w.inner.Path()
}

// File exposes the underlying OS file for metadata operations such as Stat.
func (w *LazyAOFWriter) File() *os.File {
	return w.inner.File()
}

// Close stops the background loop, drains pending writes with a final fsync,
// and closes the file.
func (w *LazyAOFWriter) Close() error {
	close(w.stopCh)
	<-w.doneCh

	if err := w.Sync(); err != nil {
		_ = w.inner.Close()
		return err
	}
	return w.inner.Close()
}

func (w *LazyAOFWriter) loop() {
	defer close(w.doneCh)

	flushTicker := time.NewTicker(w.flushInterval)
	defer flushTicker.Stop()
	syncTicker := time.NewTicker(w.syncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-flushTicker.C:
			if err := w.Flush(); err != nil {
				slog.Error("background AOF flush failed", "error", err)
			}
		case <-syncTicker.C:
			if err := w.Sync(); err != nil {
				slog.Error("background AOF sync failed", "error", err)
			}
		case <-w.stopCh:
			return
		}
	}
}
