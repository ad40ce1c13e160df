package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

// joint keeps pseudo-counts over whole chunks and predicts the next symbol by
// marginalising over every completion of the current prefix. Counts move only
// when a chunk completes.
type joint struct {
	alpha  *alphabet.Alphabet
	mem    chunkMemory
	chunks counts.Row
}

func newJoint(alpha *alphabet.Alphabet, length int) *joint {
	j := &joint{
		alpha: alpha,
		mem:   chunkMemory{length: length},
	}
	j.Reset()
	return j
}

func (j *joint) Kind() Kind { return JointChunk }
func (j *joint) Alphabet() *alphabet.Alphabet { return j.alpha }
func (j *joint) ChunkLength() int { return j.mem.length }
func (j *joint) MemoryLen() int { return j.mem.size() }

func (j *joint) Reset() {
	j.chunks = counts.NewRow(pow(j.alpha.Size(), j.mem.length), 1)
	j.mem.reset()
}

func (j *joint) Observe(symbol string) error {
	idx, err := j.alpha.Lookup(symbol)
	if err != nil {
		return err
	}
	if chunk, done := j.mem.push(idx); done {
		j.chunks.Add(j.encode(chunk), 1)
	}
	return nil
}

func (j *joint) Predict() []float64 {
	n := j.alpha.Size()
	prefix := j.mem.prefix()
	rest := j.mem.length - prefix.Len - 1
	block := pow(n, rest)
	base := j.encode(prefix) * n

	marginal := make(counts.Row, n)
	for x := 0; x < n; x++ {
		start := (base + x) * block
		for _, v := range j.chunks[start : start+block] {
			marginal[x] += v
		}
	}
	return marginal.Normalize()
}

func (j *joint) ParameterCount() int {
	return pow(j.alpha.Size(), j.mem.length)
}

// encode maps a symbol run to its mixed-radix offset.
func (j *joint) encode(c counts.Context) int {
	n := j.alpha.Size()
	code := 0
	for _, s := range c.Symbols[:c.Len] {
		code = code*n + s
	}
	return code
}
