package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]store.Run
	scores map[string]map[scoreKey]store.Score
}

type scoreKey struct {
	participant string
	model       string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:   make(map[string]store.Run),
		scores: make(map[string]map[scoreKey]store.Score),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun records a run, rejecting duplicate IDs.
func (s *Store) CreateRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("run %s already exists: %w", r.ID, internalerr.ErrInvalidInput)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// DeleteRun removes a run and its scores.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.runs, id)
	delete(s.scores, id)
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, copyRun(r))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveScores upserts scores on (participant, model) within an existing run.
func (s *Store) SaveScores(ctx context.Context, runID string, scores []store.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	byKey := s.scores[runID]
	if byKey == nil {
		byKey = make(map[scoreKey]store.Score)
		s.scores[runID] = byKey
	}
	for _, sc := range scores {
		byKey[scoreKey{sc.Participant, sc.Model}] = sc
	}
	return nil
}

// ScoresForRun returns scores ordered by participant then model.
func (s *Store) ScoresForRun(ctx context.Context, runID string) ([]store.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	out := make([]store.Score, 0, len(s.scores[runID]))
	for _, sc := range s.scores[runID] {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Participant != out[j].Participant {
			return out[i].Participant < out[j].Participant
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}

func copyRun(r store.Run) store.Run {
	r.Models = append([]string(nil), r.Models...)
	return r
}
