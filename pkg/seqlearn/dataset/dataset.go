// Package dataset reads per-participant response-time recordings.
//
// A recording is a delimited text file with a header row followed by rows of
// (triplet label, symbol, response time).
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// Options controls parsing and response-time cleaning.
type Options struct {
	// Delimiter separates fields. Default: ','
	Delimiter rune
	// MinRT drops response times below this value. Zero means the default
	// of 100; a negative value disables the floor.
	MinRT float64
	// SDCutoff drops response times above mean + SDCutoff·std. Default: 3
	SDCutoff float64
}

// withDefaults fills the zero fields of o from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Delimiter == 0 {
		o.Delimiter = def.Delimiter
	}
	if o.MinRT == 0 {
		o.MinRT = def.MinRT
	}
	if o.SDCutoff <= 0 {
		o.SDCutoff = def.SDCutoff
	}
	return o
}

// DefaultOptions returns the standard cleaning configuration.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		MinRT:     100,
		SDCutoff:  3,
	}
}

// Participant is one cleaned recording.
type Participant struct {
	ID       string
	Triplets []string
	Symbols  []string
	// RTs are log-transformed and z-scored; dropped trials are NaN.
	RTs []float64
}

// Len returns the number of trials.
func (p Participant) Len() int {
	return len(p.Symbols)
}

// TripletTypes returns the sorted distinct triplet labels.
func (p Participant) TripletTypes() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, t := range p.Triplets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Read loads a recording from path. The participant ID is the file name
// without its extension.
func Read(path string, opts Options) (Participant, error) {
	f, err := os.Open(path)
	if err != nil {
		return Participant{}, err
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p, err := Parse(f, id, opts)
	if err != nil {
		return Participant{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse reads a recording from r.
func Parse(r io.Reader, id string, opts Options) (Participant, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	p := Participant{ID: id}
	var raw []float64
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Participant{}, fmt.Errorf("line %d: %v: %w", line, err, internalerr.ErrInvalidInput)
		}
		if line == 1 {
			continue // header
		}

		fields := nonEmpty(record)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return Participant{}, fmt.Errorf("line %d: expected triplet, symbol, rt; got %d fields: %w",
				line, len(fields), internalerr.ErrInvalidInput)
		}
		rt, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Participant{}, fmt.Errorf("line %d: response time %q: %w", line, fields[2], internalerr.ErrInvalidInput)
		}

		p.Triplets = append(p.Triplets, fields[0])
		p.Symbols = append(p.Symbols, fields[1])
		raw = append(raw, rt)
	}

	if len(p.Symbols) == 0 {
		return Participant{}, fmt.Errorf("no trials: %w", internalerr.ErrInvalidInput)
	}

	p.RTs = Normalize(raw, opts)
	return p, nil
}

// Normalize drops outlying response times (set to NaN), log-transforms the
// rest and z-scores them.
func Normalize(rts []float64, opts Options) []float64 {
	opts = opts.withDefaults()
	mean, std := stat.PopMeanStdDev(rts, nil)
	upper := mean + opts.SDCutoff*std

	out := make([]float64, len(rts))
	var kept []float64
	for i, rt := range rts {
		if rt < opts.MinRT || rt > upper || rt <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(rt)
		kept = append(kept, out[i])
	}
	if len(kept) == 0 {
		return out
	}

	mean, std = stat.PopMeanStdDev(kept, nil)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if std == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

// List returns the files in dir ending in suffix, sorted by name.
func List(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func nonEmpty(record []string) []string {
	out := record[:0]
	for _, f := range record {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
