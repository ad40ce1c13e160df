package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

type transitionState uint8

const (
	// awaitingFirst: nothing observed yet, so there is no previous symbol.
	awaitingFirst transitionState = iota
	hasPrevious
)

// transition is an order-1 Markov learner over transition pseudo-counts.
type transition struct {
	alpha  *alphabet.Alphabet
	alphas counts.Matrix
	state  transitionState
	prev   int
}

func newTransition(alpha *alphabet.Alphabet) *transition {
	t := &transition{alpha: alpha}
	t.Reset()
	return t
}

func (t *transition) Kind() Kind { return TransitionProbability }
func (t *transition) Alphabet() *alphabet.Alphabet { return t.alpha }

func (t *transition) Reset() {
	t.alphas = counts.NewMatrix(t.alpha.Size(), 1)
	t.state = awaitingFirst
	t.prev = 0
}

func (t *transition) Observe(symbol string) error {
	idx, err := t.alpha.Lookup(symbol)
	if err != nil {
		return err
	}

	switch t.state {
	case awaitingFirst:
		// No context yet: spread one observation evenly over every row.
		t.alphas.AddColumn(idx, 1/float64(t.alpha.Size()))
	case hasPrevious:
		t.alphas[t.prev].Add(idx, 1)
	}

	t.prev = idx
	t.state = hasPrevious
	return nil
}

func (t *transition) Predict() []float64 {
	if t.state == awaitingFirst {
		return uniform(t.alpha.Size())
	}
	return t.alphas[t.prev].Normalize()
}

// ParameterCount covers the uniform start distribution plus the full matrix.
func (t *transition) ParameterCount() int {
	n := t.alpha.Size()
	return n + n*n
}
