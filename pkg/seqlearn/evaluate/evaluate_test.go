package evaluate

import (
	"errors"
	"math"
	"testing"

	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
)

func newModel(t *testing.T, kind model.Kind, symbols ...string) model.Model {
	t.Helper()
	a, err := alphabet.New(symbols)
	if err != nil {
		t.Fatalf("alphabet.New: %v", err)
	}
	m, err := model.New(kind, a, model.DefaultOptions())
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}

func TestRunBaselineCosts(t *testing.T) {
	m := newModel(t, model.Baseline, "a", "b", "c", "d")
	seq := []string{"a", "b", "b", "d"}

	trace, err := Run(m, seq)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trace.Steps) != len(seq) {
		t.Fatalf("expected %d steps, got %d", len(seq), len(trace.Steps))
	}

	for i, s := range trace.Steps {
		if s.Symbol != seq[i] {
			t.Errorf("step %d symbol %q, want %q", i, s.Symbol, seq[i])
		}
		// uniform over 4 symbols costs exactly 2 bits
		if math.Abs(s.Cost-2) > 1e-12 {
			t.Errorf("step %d cost %f, want 2", i, s.Cost)
		}
		if math.Abs(s.LogLikelihood-math.Log(0.25)) > 1e-12 {
			t.Errorf("step %d log-likelihood %f, want ln(1/4)", i, s.LogLikelihood)
		}
	}

	if got, want := trace.TotalLogLikelihood(), 4*math.Log(0.25); math.Abs(got-want) > 1e-12 {
		t.Errorf("total log-likelihood %f, want %f", got, want)
	}
	// baseline has no parameters, so BIC is -2·ll
	if got, want := trace.BIC(), -8*math.Log(0.25); math.Abs(got-want) > 1e-9 {
		t.Errorf("BIC %f, want %f", got, want)
	}
}

func TestRunCostMatchesPrior(t *testing.T) {
	m := newModel(t, model.TransitionProbability, "circle", "square", "triangle")
	seq := []string{"circle", "square", "circle", "square", "circle", "triangle"}

	trace, err := Run(m, seq)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, s := range trace.Steps {
		want := -math.Log2(s.Prior[s.Index])
		if math.Abs(s.Cost-want) > 1e-12 {
			t.Errorf("step %d: cost %f, want -log2 prior %f", i, s.Cost, want)
		}
		if math.Abs(s.LogLikelihood-math.Log(s.Prior[s.Index])) > 1e-12 {
			t.Errorf("step %d: log-likelihood mismatch", i)
		}
	}

	// square -> circle was reinforced, so the repeated circle costs less than the first
	if trace.Steps[4].Cost >= trace.Steps[2].Cost {
		t.Errorf("expected learning to lower cost: step2 %f, step4 %f", trace.Steps[2].Cost, trace.Steps[4].Cost)
	}
	// circle -> triangle was never seen and is more surprising than circle -> square
	if trace.Steps[5].Cost <= trace.Steps[3].Cost {
		t.Errorf("expected unseen transition to cost more: %f vs %f", trace.Steps[5].Cost, trace.Steps[3].Cost)
	}
}

func TestRunPosteriorIsNextPrior(t *testing.T) {
	m := newModel(t, model.ConjunctiveChunk, "a", "b", "c")
	trace, err := Run(m, []string{"a", "b", "c", "a", "b"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i+1 < len(trace.Steps); i++ {
		post, next := trace.Steps[i].Posterior, trace.Steps[i+1].Prior
		for j := range post {
			if post[j] != next[j] {
				t.Fatalf("step %d posterior %v differs from next prior %v", i, post, next)
			}
		}
	}
}

func TestRunUnknownSymbol(t *testing.T) {
	m := newModel(t, model.DisconnectedChunk, "a", "b")
	trace, err := Run(m, []string{"a", "x", "b"})
	if !errors.Is(err, internalerr.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if len(trace.Steps) != 1 {
		t.Errorf("expected the partial trace to hold 1 step, got %d", len(trace.Steps))
	}
}

func TestBIC(t *testing.T) {
	lls := []float64{-1, -0.5, -0.5}
	got := BIC(21, 3, lls)
	want := 21*math.Log(3) + 4
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("BIC = %f, want %f", got, want)
	}
}

func TestKL(t *testing.T) {
	if d := KL([]float64{0, 1, 0}, []float64{0.25, 0.5, 0.25}); math.Abs(d-1) > 1e-12 {
		t.Errorf("KL one-hot vs 0.5 = %f, want 1 bit", d)
	}
	if d := KL([]float64{0.5, 0.5}, []float64{0.5, 0.5}); d != 0 {
		t.Errorf("KL of identical distributions = %f, want 0", d)
	}
}
