package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchRejectsRemote(t *testing.T) {
	err := Watch(context.Background(), NewSource("https://example.org"), 0, func() {})
	if !errors.Is(err, ErrRemoteWatch) {
		t.Errorf("expected ErrRemoteWatch, got %v", err)
	}
}

func TestWatchCoalescesWrites(t *testing.T) {
	dir := writeDataset(t, map[string]string{
		DefaultPostsPath:    postsJSON,
		DefaultManifestPath: manifestJSON,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, NewSource(dir), 50*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, filepath.FromSlash(DefaultPostsPath))
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(postsJSON), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// unrelated files are ignored
	os.WriteFile(filepath.Join(dir, "data", "scratch.txt"), []byte("x"), 0644)

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
	select {
	case <-changed:
		t.Error("burst should produce one notification")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
