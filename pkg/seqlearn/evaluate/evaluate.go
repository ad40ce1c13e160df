// Package evaluate drives a sequence model over an observed stream and
// records how surprising each symbol was to it.
package evaluate

import (
	"fmt"
	"math"

	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
)

// Step is the outcome of presenting one symbol to a model.
type Step struct {
	Symbol string
	Index  int

	// Prior is the prediction before the symbol was observed.
	Prior []float64
	// Posterior is the prediction after the symbol was observed.
	Posterior []float64

	// Cost is the KL divergence (bits) of the one-hot observation from the
	// prior, i.e. -log2 Prior[Index]. Used as the predicted response time.
	Cost float64

	// LogLikelihood is ln Prior[Index].
	LogLikelihood float64
}

// Trace is the full record of one pass of a model over a sequence.
type Trace struct {
	Model          model.Kind
	ParameterCount int
	Steps          []Step
}

// Run presents symbols to m in order. The model is not reset first.
func Run(m model.Model, symbols []string) (Trace, error) {
	trace := Trace{
		Model:          m.Kind(),
		ParameterCount: m.ParameterCount(),
		Steps:          make([]Step, 0, len(symbols)),
	}
	alpha := m.Alphabet()

	for i, sym := range symbols {
		idx, err := alpha.Lookup(sym)
		if err != nil {
			return trace, fmt.Errorf("step %d: %w", i, err)
		}

		prior := m.Predict()
		observed := oneHot(len(prior), idx)

		if err := m.Observe(sym); err != nil {
			return trace, fmt.Errorf("step %d: %w", i, err)
		}

		trace.Steps = append(trace.Steps, Step{
			Symbol:        sym,
			Index:         idx,
			Prior:         prior,
			Posterior:     m.Predict(),
			Cost:          KL(observed, prior),
			LogLikelihood: math.Log(prior[idx]),
		})
	}

	return trace, nil
}

// Costs returns the per-step predicted response times.
func (t Trace) Costs() []float64 {
	out := make([]float64, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.Cost
	}
	return out
}

// LogLikelihoods returns the per-step log-likelihoods.
func (t Trace) LogLikelihoods() []float64 {
	out := make([]float64, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.LogLikelihood
	}
	return out
}

// TotalLogLikelihood sums the per-step log-likelihoods.
func (t Trace) TotalLogLikelihood() float64 {
	var sum float64
	for _, s := range t.Steps {
		sum += s.LogLikelihood
	}
	return sum
}

// BIC scores the trace: k·ln(n) − 2·Σ ll.
func (t Trace) BIC() float64 {
	return BIC(t.ParameterCount, len(t.Steps), t.LogLikelihoods())
}

// BIC computes the Bayesian information criterion for k parameters over n
// observations with the given per-step log-likelihoods.
func BIC(k, n int, logLiks []float64) float64 {
	var ll float64
	for _, v := range logLiks {
		ll += v
	}
	if n == 0 {
		return -2 * ll
	}
	return float64(k)*math.Log(float64(n)) - 2*ll
}

// KL returns the Kullback-Leibler divergence of p from q in bits.
// Terms with p[i] == 0 contribute nothing.
func KL(p, q []float64) float64 {
	var d float64
	for i := range p {
		if p[i] == 0 {
			continue
		}
		d += p[i] * math.Log2(p[i]/q[i])
	}
	return d
}

func oneHot(n, idx int) []float64 {
	v := make([]float64, n)
	v[idx] = 1
	return v
}
