// Package model implements the online sequence learners.
//
// Every learner keeps Dirichlet pseudo-counts over the symbols of one
// alphabet and exposes a running prediction for the next symbol. The set of
// learners is closed: New is the only way to build one, keyed by Kind.
package model

import (
	"fmt"
	"strings"

	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/counts"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// DefaultChunkLength is the chunk window used by the chunk learners.
const DefaultChunkLength = 3

// Model is the contract shared by all learners.
type Model interface {
	// Kind identifies the learner variant.
	Kind() Kind
	// Alphabet returns the symbols the learner was built for.
	Alphabet() *alphabet.Alphabet
	// Reset drops everything learned and keeps the alphabet.
	Reset()
	// Observe updates the counts with the next symbol of the stream.
	Observe(symbol string) error
	// Predict returns the distribution over the next symbol, in alphabet order.
	Predict() []float64
	// ParameterCount is the number of free parameters used for BIC.
	ParameterCount() int
}

// Chunked is implemented by learners that segment the stream into chunks.
type Chunked interface {
	Model
	ChunkLength() int
	// MemoryLen is the number of symbols seen in the current chunk.
	MemoryLen() int
}

// Kind enumerates the learner variants.
type Kind int

const (
	Baseline Kind = iota
	TransitionProbability
	JointChunk
	ConnectedChunk
	DisconnectedChunk
	ConjunctiveChunk
)

var kindNames = map[Kind]string{
	Baseline:              "baseline",
	TransitionProbability: "tp",
	JointChunk:            "joint",
	ConnectedChunk:        "connected",
	DisconnectedChunk:     "disconnected",
	ConjunctiveChunk:      "conjunctive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a learner name to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown model %q: %w", name, internalerr.ErrInvalidInput)
}

// ParseKinds parses a list of learner names, rejecting duplicates.
func ParseKinds(names []string) ([]Kind, error) {
	seen := make(map[Kind]struct{}, len(names))
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("model %q listed twice: %w", n, internalerr.ErrInvalidInput)
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// AllKinds lists every learner in the order they are reported.
func AllKinds() []Kind {
	return []Kind{
		TransitionProbability,
		JointChunk,
		ConnectedChunk,
		DisconnectedChunk,
		ConjunctiveChunk,
		Baseline,
	}
}

// Options configures learner construction.
type Options struct {
	// ChunkLength is the chunk window of the chunk learners. Default: 3
	ChunkLength int
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{ChunkLength: DefaultChunkLength}
}

// Validate fills defaults and checks ranges.
func (o Options) Validate() (Options, error) {
	if o.ChunkLength == 0 {
		o.ChunkLength = DefaultChunkLength
	}
	if o.ChunkLength < 2 || o.ChunkLength > counts.MaxContext {
		return o, fmt.Errorf("chunk length %d outside [2,%d]: %w",
			o.ChunkLength, counts.MaxContext, internalerr.ErrInvalidInput)
	}
	return o, nil
}

// New builds a fresh learner of the given kind.
func New(kind Kind, alpha *alphabet.Alphabet, opts Options) (Model, error) {
	if alpha == nil {
		return nil, fmt.Errorf("nil alphabet: %w", internalerr.ErrInvalidInput)
	}
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	switch kind {
	case Baseline:
		return newBaseline(alpha), nil
	case TransitionProbability:
		return newTransition(alpha), nil
	case JointChunk:
		return newJoint(alpha, opts.ChunkLength), nil
	case ConnectedChunk:
		return newConnected(alpha, opts.ChunkLength), nil
	case DisconnectedChunk:
		return newDisconnected(alpha, opts.ChunkLength), nil
	case ConjunctiveChunk:
		return newConjunctive(alpha, opts.ChunkLength), nil
	}
	return nil, fmt.Errorf("unknown model %s: %w", kind, internalerr.ErrInvalidInput)
}

// NewSet builds one learner per kind, all sharing alpha.
func NewSet(kinds []Kind, alpha *alphabet.Alphabet, opts Options) ([]Model, error) {
	models := make([]Model, 0, len(kinds))
	for _, k := range kinds {
		m, err := New(k, alpha, opts)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func uniform(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	return p
}

func pow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
