package model

import (
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
)

// chunkMemory holds the symbols of the chunk in progress. It is cleared as
// soon as it reaches the chunk length, so the stream is cut into
// non-overlapping windows.
type chunkMemory struct {
	length int
	buf    counts.Context
}

// push appends idx and reports whether the chunk completed.
func (m *chunkMemory) push(idx int) (counts.Context, bool) {
	m.buf = m.buf.Push(idx)
	full := m.buf
	if m.buf.Len >= m.length {
		m.buf = counts.Context{}
		return full, true
	}
	return full, false
}

func (m *chunkMemory) size() int { return m.buf.Len }
func (m *chunkMemory) first() int { return m.buf.Symbols[0] }
func (m *chunkMemory) last() int { return m.buf.Symbols[m.buf.Len-1] }
func (m *chunkMemory) reset() { m.buf = counts.Context{} }
func (m *chunkMemory) prefix() counts.Context { return m.buf }

// positional is the shared shape of the disconnected, connected and
// conjunctive learners: a flat row for the first position of a chunk and
// keyed rows for every later position.
type positional struct {
	kind   Kind
	alpha  *alphabet.Alphabet
	mem    chunkMemory
	prior0 float64
	first  counts.Row
	later  []*counts.Table // later[p-1] holds the rows for chunk position p
	key    func(m *chunkMemory) counts.Context
}

func newPositional(kind Kind, alpha *alphabet.Alphabet, length int, prior0 float64, key func(*chunkMemory) counts.Context) *positional {
	p := &positional{
		kind:   kind,
		alpha:  alpha,
		mem:    chunkMemory{length: length},
		prior0: prior0,
		later:  make([]*counts.Table, length-1),
		key:    key,
	}
	for i := range p.later {
		p.later[i] = counts.NewTable(alpha.Size(), 1)
	}
	p.Reset()
	return p
}

func (p *positional) Kind() Kind { return p.kind }
func (p *positional) Alphabet() *alphabet.Alphabet { return p.alpha }
func (p *positional) ChunkLength() int { return p.mem.length }
func (p *positional) MemoryLen() int { return p.mem.size() }

func (p *positional) Reset() {
	p.first = counts.NewRow(p.alpha.Size(), p.prior0)
	for _, t := range p.later {
		t.Reset()
	}
	p.mem.reset()
}

func (p *positional) Observe(symbol string) error {
	idx, err := p.alpha.Lookup(symbol)
	if err != nil {
		return err
	}

	if pos := p.mem.size(); pos == 0 {
		p.first.Add(idx, 1)
	} else {
		p.later[pos-1].Row(p.key(&p.mem)).Add(idx, 1)
	}
	p.mem.push(idx)
	return nil
}

func (p *positional) Predict() []float64 {
	pos := p.mem.size()
	if pos == 0 {
		return p.first.Normalize()
	}
	return p.later[pos-1].Peek(p.key(&p.mem)).Normalize()
}
