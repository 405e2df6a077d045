package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	var name string
	err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	if err != nil {
		t.Fatalf("kv table not created: %v", err)
	}
	if name != "kv" {
		t.Errorf("expected table name 'kv', got %q", name)
	}
}

func TestGetMissing(t *testing.T) {
	st := openTest(t)
	if _, err := st.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	st := openTest(t)

	if err := st.Set("theme", "dark"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("theme", "light"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := st.Get("theme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "light" {
		t.Errorf("expected light, got %q", got)
	}
}

func TestDelete(t *testing.T) {
	st := openTest(t)

	st.Set("a", "1")
	if err := st.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := st.Delete("a"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
	if _, err := st.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKeys(t *testing.T) {
	st := openTest(t)
	st.Set("b", "2")
	st.Set("a", "1")

	keys, err := st.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected [a b], got %v", keys)
	}
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	st.Set("k", "v")
	st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()
	if got, _ := st.Get("k"); got != "v" {
		t.Errorf("expected v after reopen, got %q", got)
	}
}

func TestConcurrentSet(t *testing.T) {
	st := openTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := st.Set(fmt.Sprintf("k%02d", i), "v"); err != nil {
				t.Errorf("Set failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	keys, _ := st.Keys()
	if len(keys) != 20 {
		t.Errorf("expected 20 keys, got %d", len(keys))
	}
}
