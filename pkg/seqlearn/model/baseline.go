package model

import "github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"

// baseline always predicts the uniform distribution. It is the null model.
type baseline struct {
	alpha      *alphabet.Alphabet
	prediction []float64
}

func newBaseline(alpha *alphabet.Alphabet) *baseline {
	return &baseline{
		alpha:      alpha,
		prediction: uniform(alpha.Size()),
	}
}

func (b *baseline) Kind() Kind { return Baseline }
func (b *baseline) Alphabet() *alphabet.Alphabet { return b.alpha }
func (b *baseline) Reset() {}
func (b *baseline) ParameterCount() int { return 0 }

func (b *baseline) Observe(symbol string) error {
	_, err := b.alpha.Lookup(symbol)
	return err
}

func (b *baseline) Predict() []float64 {
	out := make([]float64, len(b.prediction))
	copy(out, b.prediction)
	return out
}
