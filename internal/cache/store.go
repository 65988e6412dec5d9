package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const jsonDir = "json"

// Store persists one Record per image identity under <root>/json. Reads of
// missing records yield the zero record; writes are read-merge-persist with
// an atomic rename, serialized per identity so concurrent stage workers
// cannot lose sibling fields.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at the output directory. The backing
// json/ directory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// Read returns the persisted record for the identity, or a zero record
// carrying only the identity when none exists.
func (s *Store) Read(id string) (Record, error) {
	if err := validateID(id); err != nil {
		return Record{}, err
	}

	rec := Record{ImageName: id}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, nil
		}
		return rec, fmt.Errorf("read record %s: %w", id, err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record %s: %w", id, err)
	}
	if rec.ImageName == "" {
		rec.ImageName = id
	}

	return rec, nil
}

// Write merges the non-nil fields of up over the persisted record and
// writes the result atomically via a temp file rename.
func (s *Store) Write(id string, up Update) error {
	if err := validateID(id); err != nil {
		return err
	}

	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.Read(id)
	if err != nil {
		return err
	}
	rec.apply(up)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record %s: %w", id, err)
	}

	dir := filepath.Join(s.root, jsonDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist record %s: %w", id, err)
	}

	return nil
}

// Identities returns every image identity with a persisted record, sorted.
// A missing cache directory yields an empty result.
func (s *Store) Identities() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, jsonDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, jsonDir, id+".json")
}

func (s *Store) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func validateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return ErrInvalidID
	}
	return nil
}
