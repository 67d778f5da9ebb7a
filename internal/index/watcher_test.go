package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/gebo/internal/vault"
)

// watcherTestEnv sets up a vault dir, provider, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, vault.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := vault.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "gebo-watcher-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return vaultDir, store, db
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, vaultDir, logger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	content := "---\nid: obj-1\nspace_id: sp-1\nname: Watched\n---\n\nBody\n"
	if err := os.WriteFile(filepath.Join(vaultDir, "watched.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		row, found, _ := db.Get("watched.md")
		return found && row.ObjectID == "obj-1"
	}, "new file was not indexed")

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Error("expected at least one callback event")
	}
}

func TestWatcher_RemovedFileDeleted(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	path := filepath.Join(vaultDir, "gone.md")
	if err := os.WriteFile(path, []byte("text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := IndexFile(db, store, "gone.md"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, vaultDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		_, found, _ := db.Get("gone.md")
		return !found
	}, "removed file row was not deleted")
}

func TestWatcher_NewDirectoryWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, vaultDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "notes")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(subDir, "nested.md"), []byte("nested\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		_, found, _ := db.Get("notes/nested.md")
		return found
	}, "file in new subdirectory was not indexed")
}
