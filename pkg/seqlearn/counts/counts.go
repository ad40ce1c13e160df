// Package counts holds the Dirichlet pseudo-count tables shared by the
// sequence models.
package counts

import (
	"fmt"
	"math"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// MaxContext bounds the number of symbols a Context can hold.
const MaxContext = 5

// Row is a vector of pseudo-counts over the alphabet.
type Row []float64

// NewRow returns a row of n cells, each set to prior.
func NewRow(n int, prior float64) Row {
	r := make(Row, n)
	for i := range r {
		r[i] = prior
	}
	return r
}

// Add increments cell i by delta.
func (r Row) Add(i int, delta float64) {
	r[i] += delta
}

// Sum returns the total mass in the row.
func (r Row) Sum() float64 {
	var s float64
	for _, v := range r {
		s += v
	}
	return s
}

// Normalize returns a new slice whose entries sum to 1.
// A row without positive finite mass means the count invariant is broken,
// so Normalize panics instead of producing NaN.
func (r Row) Normalize() []float64 {
	sum := r.Sum()
	if !(sum > 0) || math.IsInf(sum, 0) {
		panic(fmt.Errorf("normalize row with sum %v: %w", sum, internalerr.ErrCorruptCounts))
	}
	out := make([]float64, len(r))
	for i, v := range r {
		out[i] = v / sum
	}
	return out
}

// Matrix is a square table of rows indexed [previous][current].
type Matrix []Row

// NewMatrix returns an n×n matrix filled with prior.
func NewMatrix(n int, prior float64) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = NewRow(n, prior)
	}
	return m
}

// AddColumn adds delta to column j of every row.
func (m Matrix) AddColumn(j int, delta float64) {
	for _, row := range m {
		row.Add(j, delta)
	}
}

// Context is an ordered run of symbol indices, usable as a map key.
type Context struct {
	Len     int
	Symbols [MaxContext]int
}

// NewContext builds a context from symbol indices.
func NewContext(indices ...int) Context {
	if len(indices) > MaxContext {
		panic(fmt.Sprintf("context of length %d exceeds %d", len(indices), MaxContext))
	}
	var c Context
	c.Len = copy(c.Symbols[:], indices)
	return c
}

// Push returns a copy of c with idx appended.
func (c Context) Push(idx int) Context {
	if c.Len >= MaxContext {
		panic(fmt.Sprintf("context already holds %d symbols", MaxContext))
	}
	c.Symbols[c.Len] = idx
	c.Len++
	return c
}

// Indices returns the symbol indices held by c.
func (c Context) Indices() []int {
	out := make([]int, c.Len)
	copy(out, c.Symbols[:c.Len])
	return out
}

// Table maps contexts to rows. Rows are created at the prior on first use,
// which is equivalent to every context starting at the prior.
type Table struct {
	width int
	prior float64
	rows  map[Context]Row
}

// NewTable creates an empty table of rows with width cells.
func NewTable(width int, prior float64) *Table {
	return &Table{
		width: width,
		prior: prior,
		rows:  make(map[Context]Row),
	}
}

// Row returns the row for ctx, creating it if needed.
func (t *Table) Row(ctx Context) Row {
	row, ok := t.rows[ctx]
	if !ok {
		row = NewRow(t.width, t.prior)
		t.rows[ctx] = row
	}
	return row
}

// Peek returns the row for ctx without storing a new one.
func (t *Table) Peek(ctx Context) Row {
	if row, ok := t.rows[ctx]; ok {
		return row
	}
	return NewRow(t.width, t.prior)
}

// Len returns the number of contexts touched since the last reset.
func (t *Table) Len() int {
	return len(t.rows)
}

// Reset returns every row to the prior.
func (t *Table) Reset() {
	t.rows = make(map[Context]Row)
}
