// Package session persists conversation snapshots as one JSON file per
// session under a configurable directory.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gofer/engine"
)

// Data is the persisted session record.
type Data struct {
	ID        string           `json:"id"`
	Messages  []engine.Message `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store reads and writes session files under one directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the message history under id, overwriting any previous save.
func (s *Store) Save(id string, msgs []engine.Message) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id must not be empty")
	}
	data := Data{ID: id, Messages: msgs, CreatedAt: time.Now().UTC()}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), raw, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", id, err)
	}
	return nil
}

// Load reads the session saved under id.
func (s *Store) Load(id string) (Data, error) {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		return Data{}, fmt.Errorf("read session %s: %w", id, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the session saved under id.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List returns saved session ids, newest first by file modification time.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	type item struct {
		id  string
		mod time.Time
	}
	var items []item
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, item{id: strings.TrimSuffix(name, ".json"), mod: info.ModTime()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].mod.After(items[j].mod) })

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids, nil
}
