// Package export writes run results to disk: semicolon-separated posterior
// tables and an HTML summary report.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/seqlearn/pkg/seqlearn/compare"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// WritePosteriors writes <dir>/<name>_posteriors.txt. posteriors is indexed
// [model][step]; the file has one header line of model names and one line
// per step.
func WritePosteriors(dir, name string, models []string, posteriors [][]float64) (string, error) {
	path := filepath.Join(dir, name+"_posteriors.txt")
	return path, writeTable(path, models, posteriors)
}

// WriteTripletPosteriors writes one <dir>/<name>_<type>_posteriors.txt file
// per triplet type.
func WriteTripletPosteriors(dir, name string, models []string, triplets []compare.TripletPosteriors) ([]string, error) {
	paths := make([]string, 0, len(triplets))
	for _, tp := range triplets {
		path := filepath.Join(dir, name+"_"+tp.Type+"_posteriors.txt")
		if err := writeTable(path, models, tp.Posteriors); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, models []string, columns [][]float64) error {
	if len(models) != len(columns) {
		return fmt.Errorf("%d model names for %d series: %w", len(models), len(columns), internalerr.ErrInvalidInput)
	}
	steps := 0
	if len(columns) > 0 {
		steps = len(columns[0])
	}
	for i, c := range columns {
		if len(c) != steps {
			return fmt.Errorf("series %s has %d steps, want %d: %w", models[i], len(c), steps, internalerr.ErrInvalidInput)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRows(f, models, columns, steps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRows(out io.Writer, models []string, columns [][]float64, steps int) error {
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintln(w, strings.Join(models, ";")); err != nil {
		return err
	}
	fields := make([]string, len(columns))
	for t := 0; t < steps; t++ {
		for i, c := range columns {
			fields[i] = strconv.FormatFloat(c[t], 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ";")); err != nil {
			return err
		}
	}
	return w.Flush()
}
