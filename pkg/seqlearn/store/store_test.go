package store

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestIDGeneratorMonotonic(t *testing.T) {
	g := NewIDGenerator()
	now := time.Now()

	prev := g.New(now)
	for i := 0; i < 100; i++ {
		id := g.New(now)
		if id <= prev {
			t.Fatalf("IDs not increasing: %s after %s", id, prev)
		}
		prev = id
	}

	parsed, err := ulid.Parse(prev)
	if err != nil {
		t.Fatalf("not a ULID: %v", err)
	}
	if parsed.Time() != ulid.Timestamp(now) {
		t.Errorf("timestamp mismatch: %d vs %d", parsed.Time(), ulid.Timestamp(now))
	}
}
