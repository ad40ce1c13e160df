// Package compare turns predicted response times from several models into a
// running posterior over which model best explains the observed ones.
package compare

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// ZScore standardises each row independently (population std). Rows with no
// spread, and any NaN result, become zero.
func ZScore(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		mean, std := stat.PopMeanStdDev(row, nil)
		z := make([]float64, len(row))
		for j, v := range row {
			if std == 0 {
				continue
			}
			if s := (v - mean) / std; !math.IsNaN(s) {
				z[j] = s
			}
		}
		out[i] = z
	}
	return out
}

// Likelihoods evaluates each predicted value under a unit normal centred on
// the observed value. Steps without an observation have likelihood 1.
func Likelihoods(pred [][]float64, observed []float64) ([][]float64, error) {
	if err := checkShape(pred, observed); err != nil {
		return nil, err
	}
	out := make([][]float64, len(pred))
	for i, row := range pred {
		lik := make([]float64, len(row))
		for t, v := range row {
			if math.IsNaN(observed[t]) || math.IsNaN(v) {
				lik[t] = 1
				continue
			}
			lik[t] = distuv.Normal{Mu: observed[t], Sigma: 1}.Prob(v)
		}
		out[i] = lik
	}
	return out, nil
}

// Posteriors returns, for each model (row) and step (column), the posterior
// probability of the model given all steps so far. Each column sums to 1.
func Posteriors(pred [][]float64, observed []float64) ([][]float64, error) {
	lik, err := Likelihoods(pred, observed)
	if err != nil {
		return nil, err
	}
	nModels := len(lik)
	post := make([][]float64, nModels)
	for i := range post {
		post[i] = make([]float64, len(observed))
	}

	prev := make([]float64, nModels)
	for i := range prev {
		prev[i] = 1
	}
	col := make([]float64, nModels)
	for t := range observed {
		var sum float64
		for i := range col {
			col[i] = prev[i] * lik[i][t]
			sum += col[i]
		}
		// An all-zero column carries no usable evidence: keep the previous belief.
		if !(sum > 0) || math.IsInf(sum, 0) {
			copy(col, normalized(prev))
			sum = 1
		}
		for i := range col {
			post[i][t] = col[i] / sum
			prev[i] = post[i][t]
		}
	}
	return post, nil
}

// TripletPosteriors holds posteriors restricted to one triplet type.
type TripletPosteriors struct {
	Type       string
	Posteriors [][]float64
}

// ByTriplet computes posteriors separately over the steps of each triplet
// type, in sorted type order.
func ByTriplet(pred [][]float64, observed []float64, triplets []string) ([]TripletPosteriors, error) {
	if len(triplets) != len(observed) {
		return nil, fmt.Errorf("%d triplet labels for %d steps: %w", len(triplets), len(observed), internalerr.ErrInvalidInput)
	}

	indices := make(map[string][]int)
	for t, name := range triplets {
		indices[name] = append(indices[name], t)
	}
	types := make([]string, 0, len(indices))
	for name := range indices {
		types = append(types, name)
	}
	sort.Strings(types)

	out := make([]TripletPosteriors, 0, len(types))
	for _, name := range types {
		idx := indices[name]
		subPred := make([][]float64, len(pred))
		for i, row := range pred {
			subPred[i] = pick(row, idx)
		}
		post, err := Posteriors(subPred, pick(observed, idx))
		if err != nil {
			return nil, err
		}
		out = append(out, TripletPosteriors{Type: name, Posteriors: post})
	}
	return out, nil
}

func checkShape(pred [][]float64, observed []float64) error {
	if len(pred) == 0 {
		return fmt.Errorf("no models to compare: %w", internalerr.ErrInvalidInput)
	}
	for i, row := range pred {
		if len(row) != len(observed) {
			return fmt.Errorf("model %d has %d predictions for %d observations: %w",
				i, len(row), len(observed), internalerr.ErrInvalidInput)
		}
	}
	return nil
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func normalized(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}
