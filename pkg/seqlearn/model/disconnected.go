package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

// disconnected predicts each chunk position from the first symbol of the
// chunk only.
type disconnected struct {
	*positional
}

func newDisconnected(alpha *alphabet.Alphabet, length int) *disconnected {
	key := func(m *chunkMemory) counts.Context { return counts.NewContext(m.first()) }
	return &disconnected{newPositional(DisconnectedChunk, alpha, length, 1, key)}
}

func (d *disconnected) ParameterCount() int {
	n := d.alpha.Size()
	return n + (d.mem.length-1)*n*n
}
