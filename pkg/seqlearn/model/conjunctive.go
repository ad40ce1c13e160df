package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

// conjunctive keys every chunk position on the full prefix of the chunk.
type conjunctive struct {
	*positional
}

func newConjunctive(alpha *alphabet.Alphabet, length int) *conjunctive {
	key := func(m *chunkMemory) counts.Context { return m.prefix() }
	// The chunk-start row begins at |A| per cell rather than 1.
	return &conjunctive{newPositional(ConjunctiveChunk, alpha, length, float64(alpha.Size()), key)}
}

// ParameterCount is |A| + |A|^2 + ... + |A|^L.
func (c *conjunctive) ParameterCount() int {
	n := c.alpha.Size()
	total := 0
	for i := 1; i <= c.mem.length; i++ {
		total += pow(n, i)
	}
	return total
}
