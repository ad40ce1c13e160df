package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cognicore/seqlearn/pkg/seqlearn"
	"github.com/cognicore/seqlearn/pkg/seqlearn/export"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store/sqlite"
)

// generalName prefixes the files holding the cross-participant averages.
const generalName = "general"

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every recording in a data directory",
		Long: `Evaluate every recording in a data directory.

For each participant the posterior over learners is written to
<out>/<participant>_posteriors.txt, plus one file per triplet type. The
cross-participant averages go to <out>/general_*.txt and an HTML summary to
<out>/report.html. With --db the run and its scores are stored in sqlite.

Examples:
  seqlearn run --data data/ --out results/
  seqlearn run -c run.yaml --models tp,conjunctive,baseline --db runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd)
		},
	}

	f := cmd.Flags()
	f.String("data", "", "directory of participant recordings")
	f.String("suffix", "", "recording file suffix")
	f.String("out", "", "output directory")
	f.String("db", "", "sqlite results database")
	f.Int("workers", 0, "participants processed in parallel")
	f.StringSlice("models", nil, "learners to compare")
	f.Int("chunk-length", 0, "chunk length for the chunk learners")
	return cmd
}

// applyRunFlags overlays explicitly set flags on the loaded config.
func (c *cli) applyRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("data") {
		c.cfg.DataDir, _ = f.GetString("data")
	}
	if f.Changed("suffix") {
		c.cfg.Suffix, _ = f.GetString("suffix")
	}
	if f.Changed("out") {
		c.cfg.OutputDir, _ = f.GetString("out")
	}
	if f.Changed("db") {
		c.cfg.DBPath, _ = f.GetString("db")
	}
	if f.Changed("workers") {
		c.cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("models") {
		c.cfg.Models, _ = f.GetStringSlice("models")
	}
	if f.Changed("chunk-length") {
		c.cfg.ChunkLength, _ = f.GetInt("chunk-length")
	}
}

func (c *cli) runRun(cmd *cobra.Command) error {
	ctx := cmd.Context()
	c.applyRunFlags(cmd)

	comp, err := c.cfg.Components()
	if err != nil {
		return err
	}

	var st store.Store
	if c.cfg.DBPath != "" {
		st, err = sqlite.OpenSQLite(ctx, c.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open results db: %w", err)
		}
		defer st.Close()
	}

	engine := seqlearn.New(seqlearn.Options{
		Kinds:   comp.Kinds,
		Models:  comp.ModelOptions,
		Workers: c.cfg.Workers,
		Store:   st,
		Logger:  c.log,
	})

	res, err := engine.RunFiles(ctx, c.cfg.DataDir, c.cfg.Suffix, comp.Dataset)
	if err != nil {
		return err
	}

	if err := writeResults(c.cfg.OutputDir, res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d participants, %d steps\n",
		res.Run.ID, len(res.Participants), len(res.Summary.ObservedRTs))
	for i, name := range res.Summary.Models {
		post := res.Summary.Posterior[i]
		fmt.Fprintf(out, "  %-13s final posterior %.4f\n", name, post[len(post)-1])
	}
	fmt.Fprintf(out, "Results written to %s\n", c.cfg.OutputDir)
	return nil
}

func writeResults(dir string, res seqlearn.RunResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var scores []store.Score
	for _, pr := range res.Participants {
		models := pr.ModelNames()
		if _, err := export.WritePosteriors(dir, pr.Participant.ID, models, pr.Posteriors); err != nil {
			return err
		}
		if _, err := export.WriteTripletPosteriors(dir, pr.Participant.ID, models, pr.Triplets); err != nil {
			return err
		}
		scores = append(scores, pr.Scores()...)
	}

	s := res.Summary
	if _, err := export.WritePosteriors(dir, generalName, s.Models, s.Posterior); err != nil {
		return err
	}
	if _, err := export.WritePosteriors(dir, generalName+"_se", s.Models, s.PosteriorSE); err != nil {
		return err
	}
	if _, err := export.WriteTripletPosteriors(dir, generalName, s.Models, s.Triplets); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.WriteReport(f, export.Report{Run: res.Run, Scores: scores}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
