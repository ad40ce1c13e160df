package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists evaluation runs and per-participant model scores
type Store interface {
	Close() error

	// Runs
	CreateRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// DeleteRun removes a run together with its scores.
	DeleteRun(ctx context.Context, id string) error

	// Scores. SaveScores upserts on (participant, model): re-saving a pair
	// replaces the earlier score.
	SaveScores(ctx context.Context, runID string, scores []Score) error
	ScoresForRun(ctx context.Context, runID string) ([]Score, error)
}

// Run describes one evaluation over a set of participants
type Run struct {
	ID           string
	StartedAt    time.Time
	DataDir      string
	Models       []string
	ChunkLength  int
	Participants int
}

// Score summarises one model on one participant
type Score struct {
	Participant    string
	Model          string
	Parameters     int
	Steps          int
	LogLikelihood  float64
	BIC            float64
	MeanCost       float64
	FinalPosterior float64
}

// IDGenerator hands out lexically sortable run IDs
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates a generator backed by crypto/rand
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a ULID for time t
func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
