// Package seqlearn runs a family of sequence learners over participant
// recordings and compares them by how well their surprise tracks response
// times.
package seqlearn

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/seqlearn/internal/logging"
	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/compare"
	"github.com/cognicore/seqlearn/pkg/seqlearn/dataset"
	"github.com/cognicore/seqlearn/pkg/seqlearn/evaluate"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

// Engine evaluates learners over participants
type Engine struct {
	kinds   []model.Kind
	opts    model.Options
	workers int
	store   store.Store
	ids     *store.IDGenerator
	log     *slog.Logger
	now     func() time.Time
}

// Options configures an Engine
type Options struct {
	// Kinds lists the learners to compare. Default: model.AllKinds()
	Kinds []model.Kind
	// Models configures learner construction.
	Models model.Options
	// Workers bounds how many participants are processed at once. Default: 1
	Workers int
	// Store, when set, receives the run record and per-participant scores.
	Store  store.Store
	Logger *slog.Logger
	// Now overrides the clock used for run IDs.
	Now func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = model.AllKinds()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		kinds:   kinds,
		opts:    opts.Models,
		workers: workers,
		store:   opts.Store,
		ids:     store.NewIDGenerator(),
		log:     logging.WithComponent(opts.Logger, "engine"),
		now:     now,
	}
}

// ModelNames returns the configured learner names in report order
func (e *Engine) ModelNames() []string {
	names := make([]string, len(e.kinds))
	for i, k := range e.kinds {
		names[i] = k.String()
	}
	return names
}

// ModelResult is one learner's pass over one participant
type ModelResult struct {
	Kind  model.Kind
	Trace evaluate.Trace
	// PredictedRTs are the step costs z-scored across the sequence.
	PredictedRTs []float64
	BIC          float64
}

// ParticipantResult gathers every learner's outcome for one participant
type ParticipantResult struct {
	Participant dataset.Participant
	Models      []ModelResult
	// Posteriors is indexed [model][step].
	Posteriors [][]float64
	Triplets   []compare.TripletPosteriors
}

// ModelNames returns the learner names in result order
func (r ParticipantResult) ModelNames() []string {
	names := make([]string, len(r.Models))
	for i, m := range r.Models {
		names[i] = m.Kind.String()
	}
	return names
}

// Scores summarises the result for persistence
func (r ParticipantResult) Scores() []store.Score {
	scores := make([]store.Score, len(r.Models))
	for i, m := range r.Models {
		var final float64
		if post := r.Posteriors[i]; len(post) > 0 {
			final = post[len(post)-1]
		}
		scores[i] = store.Score{
			Participant:    r.Participant.ID,
			Model:          m.Kind.String(),
			Parameters:     m.Trace.ParameterCount,
			Steps:          len(m.Trace.Steps),
			LogLikelihood:  m.Trace.TotalLogLikelihood(),
			BIC:            m.BIC,
			MeanCost:       stat.Mean(m.Trace.Costs(), nil),
			FinalPosterior: final,
		}
	}
	return scores
}

// ProcessParticipant runs every learner over p and compares them against the
// participant's response times.
func (e *Engine) ProcessParticipant(ctx context.Context, p dataset.Participant) (ParticipantResult, error) {
	if err := ctx.Err(); err != nil {
		return ParticipantResult{}, err
	}
	if len(p.RTs) != len(p.Symbols) || len(p.Triplets) != len(p.Symbols) {
		return ParticipantResult{}, fmt.Errorf("participant %s: ragged columns: %w", p.ID, internalerr.ErrInvalidInput)
	}

	alpha, err := alphabet.New(p.Symbols)
	if err != nil {
		return ParticipantResult{}, fmt.Errorf("participant %s: %w", p.ID, err)
	}
	models, err := model.NewSet(e.kinds, alpha, e.opts)
	if err != nil {
		return ParticipantResult{}, err
	}

	res := ParticipantResult{Participant: p, Models: make([]ModelResult, len(models))}
	costs := make([][]float64, len(models))
	for i, m := range models {
		m.Reset()
		trace, err := evaluate.Run(m, p.Symbols)
		if err != nil {
			return ParticipantResult{}, fmt.Errorf("participant %s, model %s: %w", p.ID, m.Kind(), err)
		}
		costs[i] = trace.Costs()
		res.Models[i] = ModelResult{
			Kind:  m.Kind(),
			Trace: trace,
			BIC:   trace.BIC(),
		}
	}

	predicted := compare.ZScore(costs)
	for i := range res.Models {
		res.Models[i].PredictedRTs = predicted[i]
	}

	if res.Posteriors, err = compare.Posteriors(predicted, p.RTs); err != nil {
		return ParticipantResult{}, fmt.Errorf("participant %s: %w", p.ID, err)
	}
	if res.Triplets, err = compare.ByTriplet(predicted, p.RTs, p.Triplets); err != nil {
		return ParticipantResult{}, fmt.Errorf("participant %s: %w", p.ID, err)
	}

	e.log.Debug("participant processed",
		"participant", p.ID,
		"steps", p.Len(),
		"symbols", alpha.Size(),
	)
	return res, nil
}

// RunResult is the outcome of one run across participants
type RunResult struct {
	Run          store.Run
	Participants []ParticipantResult
	Summary      Summary
}

// Run processes already-loaded participants
func (e *Engine) Run(ctx context.Context, dataDir string, participants []dataset.Participant) (RunResult, error) {
	return e.run(ctx, dataDir, len(participants), func(i int) (dataset.Participant, error) {
		return participants[i], nil
	})
}

// RunFiles reads and processes every recording in dataDir ending in suffix
func (e *Engine) RunFiles(ctx context.Context, dataDir, suffix string, opts dataset.Options) (RunResult, error) {
	paths, err := dataset.List(dataDir, suffix)
	if err != nil {
		return RunResult{}, err
	}
	if len(paths) == 0 {
		return RunResult{}, fmt.Errorf("no %s files in %s: %w", suffix, dataDir, internalerr.ErrNotFound)
	}
	return e.run(ctx, dataDir, len(paths), func(i int) (dataset.Participant, error) {
		return dataset.Read(paths[i], opts)
	})
}

func (e *Engine) run(ctx context.Context, dataDir string, n int, load func(int) (dataset.Participant, error)) (RunResult, error) {
	if n == 0 {
		return RunResult{}, fmt.Errorf("no participants: %w", internalerr.ErrInvalidInput)
	}

	started := e.now()
	run := store.Run{
		ID:           e.ids.New(started),
		StartedAt:    started,
		DataDir:      dataDir,
		Models:       e.ModelNames(),
		ChunkLength:  e.opts.ChunkLength,
		Participants: n,
	}
	if run.ChunkLength == 0 {
		run.ChunkLength = model.DefaultChunkLength
	}
	if e.store != nil {
		if err := e.store.CreateRun(ctx, run); err != nil {
			return RunResult{}, fmt.Errorf("create run: %w", err)
		}
	}
	log := e.log.With("run", run.ID)
	log.Info("run started", "participants", n, "workers", e.workers, "models", run.Models)

	results := make([]ParticipantResult, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			p, err := load(i)
			if err != nil {
				return err
			}
			res, err := e.ProcessParticipant(gctx, p)
			if err != nil {
				return err
			}
			if e.store != nil {
				if err := e.store.SaveScores(gctx, run.ID, res.Scores()); err != nil {
					return fmt.Errorf("save scores for %s: %w", p.ID, err)
				}
			}
			results[i] = res
			log.Info("participant done", "participant", p.ID, "index", i+1, "of", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("run failed", "error", err)
		e.discardRun(ctx, log, run.ID)
		return RunResult{}, err
	}

	summary, err := Summarize(results)
	if err != nil {
		e.discardRun(ctx, log, run.ID)
		return RunResult{}, err
	}
	log.Info("run finished", "elapsed", e.now().Sub(started).String())

	return RunResult{Run: run, Participants: results, Summary: summary}, nil
}

// discardRun drops a failed run so the store only lists complete runs.
func (e *Engine) discardRun(ctx context.Context, log *slog.Logger, id string) {
	if e.store == nil {
		return
	}
	if err := e.store.DeleteRun(context.WithoutCancel(ctx), id); err != nil {
		log.Warn("failed to discard run", "error", err)
	}
}

// Summary averages results across participants
type Summary struct {
	Models []string
	// Posterior and PosteriorSE are indexed [model][step].
	Posterior   [][]float64
	PosteriorSE [][]float64
	// Triplets holds the mean per-triplet posteriors; TripletSE matches it.
	Triplets  []compare.TripletPosteriors
	TripletSE []compare.TripletPosteriors
	// PredictedRTs is the mean z-scored cost, [model][step].
	PredictedRTs [][]float64
	// ObservedRTs is the NaN-aware mean of the normalised response times.
	ObservedRTs []float64
}

// Summarize averages posteriors, predicted and observed response times over
// participants. All participants must share learners and sequence length.
func Summarize(results []ParticipantResult) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, fmt.Errorf("nothing to summarize: %w", internalerr.ErrInvalidInput)
	}
	first := results[0]
	models := first.ModelNames()
	steps := first.Participant.Len()

	for _, r := range results[1:] {
		if r.Participant.Len() != steps {
			return Summary{}, fmt.Errorf("participant %s has %d steps, %s has %d: %w",
				r.Participant.ID, r.Participant.Len(), first.Participant.ID, steps, internalerr.ErrInvalidInput)
		}
		if len(r.Models) != len(models) {
			return Summary{}, fmt.Errorf("participant %s evaluated with different models: %w", r.Participant.ID, internalerr.ErrInvalidInput)
		}
		if len(r.Triplets) != len(first.Triplets) {
			return Summary{}, fmt.Errorf("participant %s has different triplet types: %w", r.Participant.ID, internalerr.ErrInvalidInput)
		}
		for k, tp := range r.Triplets {
			if tp.Type != first.Triplets[k].Type || len(tp.Posteriors[0]) != len(first.Triplets[k].Posteriors[0]) {
				return Summary{}, fmt.Errorf("participant %s triplet %q does not line up: %w", r.Participant.ID, tp.Type, internalerr.ErrInvalidInput)
			}
		}
	}

	s := Summary{Models: models}
	s.Posterior, s.PosteriorSE = meanSE(results, func(r ParticipantResult) [][]float64 { return r.Posteriors })
	s.PredictedRTs, _ = meanSE(results, func(r ParticipantResult) [][]float64 {
		out := make([][]float64, len(r.Models))
		for i, m := range r.Models {
			out[i] = m.PredictedRTs
		}
		return out
	})

	for k, tp := range first.Triplets {
		mean, se := meanSE(results, func(r ParticipantResult) [][]float64 { return r.Triplets[k].Posteriors })
		s.Triplets = append(s.Triplets, compare.TripletPosteriors{Type: tp.Type, Posteriors: mean})
		s.TripletSE = append(s.TripletSE, compare.TripletPosteriors{Type: tp.Type, Posteriors: se})
	}

	s.ObservedRTs = make([]float64, steps)
	for t := range s.ObservedRTs {
		var vals []float64
		for _, r := range results {
			if v := r.Participant.RTs[t]; !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			s.ObservedRTs[t] = math.NaN()
			continue
		}
		s.ObservedRTs[t] = stat.Mean(vals, nil)
	}
	return s, nil
}

// meanSE averages a [model][step] series over participants and returns the
// standard error (population std / sqrt(n)) alongside.
func meanSE(results []ParticipantResult, series func(ParticipantResult) [][]float64) (mean, se [][]float64) {
	all := make([][][]float64, len(results))
	for j, r := range results {
		all[j] = series(r)
	}
	shape := all[0]
	mean = make([][]float64, len(shape))
	se = make([][]float64, len(shape))
	vals := make([]float64, len(results))
	sqrtN := math.Sqrt(float64(len(results)))

	for i := range shape {
		mean[i] = make([]float64, len(shape[i]))
		se[i] = make([]float64, len(shape[i]))
		for t := range shape[i] {
			for j := range all {
				vals[j] = all[j][i][t]
			}
			m, std := stat.PopMeanStdDev(vals, nil)
			mean[i][t] = m
			se[i][t] = std / sqrtN
		}
	}
	return mean, se
}
