package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/seqlearn/pkg/seqlearn/export"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store/sqlite"
)

func newRunsCmd(c *cli) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List runs stored in the results database, newest first.

Subcommands:
  show    Print the per-participant scores of a run
  report  Write the HTML report of a run

Examples:
  seqlearn runs --db runs.db
  seqlearn runs show 01J0ABCDEF... --db runs.db
  seqlearn runs report 01J0ABCDEF... --db runs.db -o report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), dbPath, func(st store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTARTED\tPARTICIPANTS\tCHUNK\tMODELS")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
						r.Participants, r.ChunkLength, strings.Join(r.Models, ","))
				}
				return w.Flush()
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the per-participant scores of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), dbPath, func(st store.Store) error {
				scores, err := st.ScoresForRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("load scores: %w", err)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PARTICIPANT\tMODEL\tPARAMS\tLL\tBIC\tMEAN COST\tPOSTERIOR")
				for _, s := range scores {
					fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.4f\n",
						s.Participant, s.Model, s.Parameters, s.LogLikelihood, s.BIC, s.MeanCost, s.FinalPosterior)
				}
				return w.Flush()
			})
		},
	}

	var reportPath string
	reportCmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Write the HTML report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), dbPath, func(st store.Store) error {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("load run: %w", err)
				}
				scores, err := st.ScoresForRun(cmd.Context(), run.ID)
				if err != nil {
					return fmt.Errorf("load scores: %w", err)
				}

				report := export.Report{Run: run, Scores: scores}
				if reportPath == "" || reportPath == "-" {
					return export.WriteReport(cmd.OutOrStdout(), report)
				}
				f, err := os.Create(reportPath)
				if err != nil {
					return err
				}
				if err := export.WriteReport(f, report); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	reportCmd.Flags().StringVarP(&reportPath, "output", "o", "", "report file (default stdout)")

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite results database (default: db_path from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max runs")
	cmd.AddCommand(showCmd)
	cmd.AddCommand(reportCmd)
	return cmd
}

// withStore opens the results database for the duration of fn.
func (c *cli) withStore(ctx context.Context, dbPath string, fn func(store.Store) error) error {
	if dbPath == "" {
		dbPath = c.cfg.DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("--db or db_path in config is required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("results db %s: %w", dbPath, err)
	}

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer st.Close()
	return fn(st)
}
