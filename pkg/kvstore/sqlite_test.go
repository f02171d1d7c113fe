package kvstore

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSetGetDelete(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Set(ctx, "translate:Tomato___Late_blight:hi", `{"value":1}`); err != nil {
		t.Fatal(err)
	}

	value, found, err := s.Get(ctx, "translate:Tomato___Late_blight:hi")
	if err != nil {
		t.Fatal(err)
	}
	if !found || value != `{"value":1}` {
		t.Errorf("Get() = %q, %v; want stored value", value, found)
	}

	if err := s.Set(ctx, "translate:Tomato___Late_blight:hi", `{"value":2}`); err != nil {
		t.Fatal(err)
	}
	value, _, _ = s.Get(ctx, "translate:Tomato___Late_blight:hi")
	if value != `{"value":2}` {
		t.Errorf("overwrite not applied, got %q", value)
	}

	if err := s.Delete(ctx, "translate:Tomato___Late_blight:hi"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "translate:Tomato___Late_blight:hi"); found {
		t.Error("expected key to be gone after Delete")
	}
}

func TestSQLiteMissingKey(t *testing.T) {
	s := newTestSQLite(t)

	value, found, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing key should not error: %v", err)
	}
	if found || value != "" {
		t.Errorf("Get() = %q, %v; want miss", value, found)
	}
	if err := s.Delete(context.Background(), "nope"); err != nil {
		t.Errorf("deleting missing key: %v", err)
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "treat:Leaf Blight:en", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if value, found, _ := reopened.Get(ctx, "treat:Leaf Blight:en"); !found || value != "x" {
		t.Errorf("value lost across reopen: %q, %v", value, found)
	}
	if n, err := reopened.Len(ctx); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}
}
