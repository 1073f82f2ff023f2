package persistence

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func readAllCommands(t *testing.T, path string) []*Command {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open AOF: %v", err)
	}
	defer f.Close()

	var cmds []*Command
	r := bufio.NewReader(f)
	for {
		cmd, err := ParseCommand(r)
		if err == io.EOF {
			return cmds
		}
		if err != nil {
			t.Fatalf("ParseCommand failed: %v", err)
		}
		cmds = append(cmds, cmd)
	}
}

func TestAOFWriterAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.aof")

	aof, err := NewAOFWriter(path)
	if err != nil {
		t.Fatalf("NewAOFWriter failed: %v", err)
	}
	aof.Write(FormatCommand("NADD", []byte("1")))
	aof.Write(FormatCommand("LINK", []byte("1"), []byte("2")))
	if err := aof.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	cmds := readAllCommands(t, path)
	if len(cmds) != 2 || cmds[0].Name != "NADD" || cmds[1].Name != "LINK" {
		t.Fatalf("replayed %d commands, want NADD then LINK", len(cmds))
	}

	// Reopening appends instead of clobbering.
	aof, err = NewAOFWriter(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	aof.Write(FormatCommand("NDEL", []byte("2")))
	aof.Close()

	if cmds := readAllCommands(t, path); len(cmds) != 3 {
		t.Errorf("replayed %d commands after reopen, want 3", len(cmds))
	}
}

func TestAOFWriterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.aof")

	aof, err := NewAOFWriter(path)
	if err != nil {
		t.Fatalf("NewAOFWriter failed: %v", err)
	}
	aof.Write(FormatCommand("NADD", []byte("1")))
	if err := aof.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := aof.Truncate(); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	aof.Write(FormatCommand("NADD", []byte("9")))
	aof.Close()

	cmds := readAllCommands(t, path)
	if len(cmds) != 1 || string(cmds[0].Args[0]) != "9" {
		t.Fatalf("expected only the post-truncate command, got %d", len(cmds))
	}
}

func TestLazyAOFWriterDrainsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy.aof")

	lazy, err := NewLazyAOFWriter(path)
	if err != nil {
		t.Fatalf("NewLazyAOFWriter failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		lazy.Write(FormatCommand("NADD", []byte{byte('0' + i)}))
	}
	if err := lazy.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if cmds := readAllCommands(t, path); len(cmds) != 10 {
		t.Errorf("replayed %d commands, want all 10 pending writes", len(cmds))
	}
}

func TestLazyAOFWriterConcurrentFlushKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.aof")

	lazy, err := NewLazyAOFWriter(path)
	if err != nil {
		t.Fatalf("NewLazyAOFWriter failed: %v", err)
	}

	// Flushes race with the writer from several directions in production:
	// the flush ticker, the sync ticker, and every mutation's own Flush.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					lazy.Flush()
				}
			}
		}()
	}

	const n = 5000
	for i := 0; i < n; i++ {
		lazy.Write(FormatCommand("NADD", []byte(strconv.Itoa(i))))
		lazy.Flush()
	}
	close(stop)
	wg.Wait()
	if err := lazy.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Replay must yield every command exactly once, in write order.
	cmds := readAllCommands(t, path)
	if len(cmds) != n {
		t.Fatalf("replayed %d commands, want %d", len(cmds), n)
	}
	for i, cmd := range cmds {
		if got := string(cmd.Args[0]); got != strconv.Itoa(i) {
			t.Fatalf("log order violated at index %d: got command %s", i, got)
		}
	}
}

func TestLazyAOFWriterReplaceWith(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.aof")
	rewritten := filepath.Join(dir, "rewrite.aof")

	lazy, err := NewLazyAOFWriter(path)
	if err != nil {
		t.Fatalf("NewLazyAOFWriter failed: %v", err)
	}
	defer lazy.Close()

	lazy.Write(FormatCommand("NADD", []byte("1")))
	if err := os.WriteFile(rewritten, []byte(FormatCommand("NADD", []byte("42"))), 0666); err != nil {
		t.Fatalf("failed to stage rewrite file: %v", err)
	}
	if err := lazy.ReplaceWith(rewritten); err != nil {
		t.Fatalf("ReplaceWith failed: %v", err)
	}

	lazy.Write(FormatCommand("LINK", []byte("42"), []byte("43")))
	if err := lazy.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	cmds := readAllCommands(t, path)
	if len(cmds) != 2 || string(cmds[0].Args[0]) != "42" || cmds[1].Name != "LINK" {
		t.Fatalf("unexpected post-replace log: %d commands", len(cmds))
	}
}
