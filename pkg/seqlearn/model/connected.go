package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

// connected chains transitions inside a chunk: each position is keyed by the
// symbol right before it, and the chain restarts at every chunk boundary.
type connected struct {
	*positional
}

func newConnected(alpha *alphabet.Alphabet, length int) *connected {
	key := func(m *chunkMemory) counts.Context { return counts.NewContext(m.last()) }
	return &connected{newPositional(ConnectedChunk, alpha, length, 1, key)}
}

func (c *connected) ParameterCount() int {
	n := c.alpha.Size()
	return n + (c.mem.length-1)*n*n
}
