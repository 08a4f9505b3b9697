package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoTasks is returned when a form submission yields an empty document.
var ErrNoTasks = errors.New("At least one task with a name and one strategy with a remove condition is required.")

// Store reads and writes the autoremove-torrents config file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Read loads the config file and parses it. Read never fails; problems are
// reported through Snapshot.Error so the raw text stays editable.
func (s *Store) Read() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return read(s.path)
}

func read(path string) Snapshot {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return errSnapshot("", fmt.Sprintf("Config file not found: %s", path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return errSnapshot("", err.Error())
	}
	return Parse(string(b))
}

// Parse builds a snapshot from raw YAML. A document that is not a mapping
// parses to an empty task list.
func Parse(raw string) Snapshot {
	doc, err := ParseDocument(raw)
	if err != nil {
		return errSnapshot(raw, err.Error())
	}
	parsed := ParsedToForm(doc)
	return okSnapshot(raw, &parsed)
}

// WriteRaw validates raw and replaces the config file with it.
func (s *Store) WriteRaw(raw string) error {
	if err := ValidateRaw(raw); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path, []byte(raw), 0o644)
}

// WriteForm serializes the form model and writes it. It returns the raw
// text that was written.
func (s *Store) WriteForm(cfg Configuration) (string, error) {
	doc := FormToDocument(cfg)
	if len(doc.Content) == 0 {
		return "", ErrNoTasks
	}
	raw, err := EncodeDocument(doc)
	if err != nil {
		return "", err
	}
	if err := s.WriteRaw(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return errors.New("write config: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}
