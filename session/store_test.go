package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gofer/engine"
)

func TestSaveAndLoad(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	msgs := []engine.Message{
		engine.SystemMessage("prompt"),
		engine.UserMessage("hello"),
		engine.AssistantMessage("hi there"),
	}
	if err := store.Save("work", msgs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.ID != "work" {
		t.Errorf("id = %q", data.ID)
	}
	if len(data.Messages) != 3 || data.Messages[1].Content != "hello" {
		t.Errorf("messages round-trip mismatch: %+v", data.Messages)
	}
	if data.CreatedAt.IsZero() {
		t.Errorf("created_at not set")
	}
}

func TestLoad_Missing(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Load("nope"); err == nil {
		t.Fatalf("expected error for missing session")
	}
}

func TestSave_EmptyID(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if err := store.Save("  ", nil); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	if err := store.Save("older", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Force a distinct, earlier mtime instead of sleeping between saves.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "older.json"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := store.Save("newer", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "newer" || ids[1] != "older" {
		t.Errorf("ids = %v, want [newer older]", ids)
	}
}

func TestDelete(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if err := store.Save("gone", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load("gone"); err == nil {
		t.Errorf("session still loadable after delete")
	}
}
