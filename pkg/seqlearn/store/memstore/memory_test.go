package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	run := store.Run{ID: "01A", DataDir: "data", Models: []string{"tp", "baseline"}, ChunkLength: 3, Participants: 2}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.CreateRun(ctx, run); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected duplicate rejection, got %v", err)
	}

	got, err := s.GetRun(ctx, "01A")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.DataDir != "data" || len(got.Models) != 2 {
		t.Errorf("GetRun() = %+v", got)
	}

	// returned runs are copies
	got.Models[0] = "mutated"
	again, _ := s.GetRun(ctx, "01A")
	if again.Models[0] != "tp" {
		t.Error("store state leaked through returned run")
	}

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"01B", "01C", "01A"} {
		if err := s.CreateRun(ctx, store.Run{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	runs, _ := s.ListRuns(ctx, 2)
	if len(runs) != 2 || runs[0].ID != "01C" || runs[1].ID != "01B" {
		t.Errorf("ListRuns() = %+v", runs)
	}
}

func TestScores(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.SaveScores(ctx, "nope", nil); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown run, got %v", err)
	}

	_ = s.CreateRun(ctx, store.Run{ID: "r"})
	_ = s.SaveScores(ctx, "r", []store.Score{{Participant: "p2", Model: "tp"}})
	_ = s.SaveScores(ctx, "r", []store.Score{{Participant: "p1", Model: "tp"}, {Participant: "p1", Model: "baseline"}})

	scores, err := s.ScoresForRun(ctx, "r")
	if err != nil {
		t.Fatalf("ScoresForRun: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if scores[0].Participant != "p1" || scores[0].Model != "baseline" || scores[2].Participant != "p2" {
		t.Errorf("unexpected order: %+v", scores)
	}
}

func TestSaveScoresReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateRun(ctx, store.Run{ID: "r"})

	if err := s.SaveScores(ctx, "r", []store.Score{{Participant: "p", Model: "tp", FinalPosterior: 0.2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveScores(ctx, "r", []store.Score{{Participant: "p", Model: "tp", FinalPosterior: 0.9}}); err != nil {
		t.Fatal(err)
	}

	scores, _ := s.ScoresForRun(ctx, "r")
	if len(scores) != 1 {
		t.Fatalf("expected 1 score after re-save, got %d", len(scores))
	}
	if scores[0].FinalPosterior != 0.9 {
		t.Errorf("FinalPosterior = %f, want 0.9", scores[0].FinalPosterior)
	}
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateRun(ctx, store.Run{ID: "r"})
	_ = s.SaveScores(ctx, "r", []store.Score{{Participant: "p", Model: "tp"}})

	if err := s.DeleteRun(ctx, "r"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(ctx, "r"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.ScoresForRun(ctx, "r"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected scores gone after delete, got %v", err)
	}
	if err := s.DeleteRun(ctx, "r"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
