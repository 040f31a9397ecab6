package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/mailbear/mailbear/internal/logger"
)

// record is the durable layout: the full identifier list, rewritten wholesale
// on every mutation. O(n) per write, acceptable for the lifetime message
// count of a single sender.
type record struct {
	ProcessedIDs []string `json:"processed_ids"`
}

// Store tracks which message identifiers have already been handled. It is the
// sole owner of the processed set; every mutation is persisted synchronously
// so a crash loses at most the in-flight message.
type Store struct {
	path string
	ids  map[string]struct{}
	log  logger.Logger
}

// New loads the store from path. A missing file is initialized as an empty
// record immediately; a corrupt file is treated as empty state and
// overwritten (fail-open: losing deduplication beats refusing to start).
func New(path string, log logger.Logger) *Store {
	s := &Store{
		path: path,
		ids:  make(map[string]struct{}),
		log:  log,
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debugf("state file not found at %s, creating new state", s.path)
		} else {
			s.log.Errorf("error reading state file %s: %v", s.path, err)
		}
		s.save()
		return
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Errorf("state file %s is corrupt, resetting: %v", s.path, err)
		s.save()
		return
	}

	for _, id := range rec.ProcessedIDs {
		s.ids[id] = struct{}{}
	}
	s.log.Debugf("loaded %d processed message ids from state", len(s.ids))
}

// save rewrites the durable record. Failure is logged but not raised: the
// in-memory mark stands for the remainder of the process lifetime.
func (s *Store) save() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Errorf("error creating state directory: %v", err)
		return
	}

	rec := record{ProcessedIDs: make([]string, 0, len(s.ids))}
	for id := range s.ids {
		rec.ProcessedIDs = append(rec.ProcessedIDs, id)
	}
	sort.Strings(rec.ProcessedIDs)

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		s.log.Errorf("error encoding state: %v", err)
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		s.log.Errorf("error saving state file %s: %v", s.path, err)
	}
}

// IsProcessed is a pure lookup with no side effect.
func (s *Store) IsProcessed(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// MarkProcessed adds id to the set and persists synchronously.
func (s *Store) MarkProcessed(id string) {
	s.ids[id] = struct{}{}
	s.save()
}

// ProcessedIDs returns a snapshot of the full set for exclusion filters.
func (s *Store) ProcessedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return ids
}

// Clear empties the set and persists immediately.
func (s *Store) Clear() {
	s.ids = make(map[string]struct{})
	s.save()
}
