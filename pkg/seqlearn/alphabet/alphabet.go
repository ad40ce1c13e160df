package alphabet

import (
	"fmt"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// Alphabet is the fixed, ordered set of distinct symbols seen in one sequence.
// The position of a symbol is its identity in every count table.
type Alphabet struct {
	symbols []string
	index   map[string]int
}

// New builds an alphabet from symbols, keeping the first appearance of each.
func New(symbols []string) (*Alphabet, error) {
	a := &Alphabet{index: make(map[string]int, len(symbols))}
	for _, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("empty symbol: %w", internalerr.ErrInvalidInput)
		}
		if _, ok := a.index[s]; ok {
			continue
		}
		a.index[s] = len(a.symbols)
		a.symbols = append(a.symbols, s)
	}
	if len(a.symbols) == 0 {
		return nil, fmt.Errorf("alphabet needs at least one symbol: %w", internalerr.ErrInvalidInput)
	}
	return a, nil
}

// Size returns the number of distinct symbols.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Index returns the canonical index of a symbol.
func (a *Alphabet) Index(symbol string) (int, bool) {
	i, ok := a.index[symbol]
	return i, ok
}

// Lookup is Index with an error for symbols outside the alphabet.
func (a *Alphabet) Lookup(symbol string) (int, error) {
	i, ok := a.index[symbol]
	if !ok {
		return 0, fmt.Errorf("%q: %w", symbol, internalerr.ErrUnknownSymbol)
	}
	return i, nil
}

// Contains reports whether symbol belongs to the alphabet.
func (a *Alphabet) Contains(symbol string) bool {
	_, ok := a.index[symbol]
	return ok
}

// Symbol returns the symbol at index i.
func (a *Alphabet) Symbol(i int) string {
	return a.symbols[i]
}

// Symbols returns a copy of the symbols in index order.
func (a *Alphabet) Symbols() []string {
	out := make([]string, len(a.symbols))
	copy(out, a.symbols)
	return out
}
