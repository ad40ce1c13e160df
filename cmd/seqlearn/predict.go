package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/seqlearn/pkg/seqlearn/alphabet"
	"github.com/cognicore/seqlearn/pkg/seqlearn/evaluate"
	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
)

func newPredictCmd(c *cli) *cobra.Command {
	var (
		modelName   string
		symbols     []string
		symbolSet   []string
		chunkLength int
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Trace one learner over a symbol sequence",
		Long: `Feed a symbol sequence to one learner and print, for every step, the
probability it gave the observed symbol, the surprise in bits and the log
likelihood.

Examples:
  seqlearn predict --model tp --symbols A,B,A,B,A
  seqlearn predict --model conjunctive --symbols A,B,C,A,B,C --alphabet A,B,C,D`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(modelName)
			if err != nil {
				return err
			}
			if len(symbolSet) == 0 {
				symbolSet = symbols
			}
			alpha, err := alphabet.New(symbolSet)
			if err != nil {
				return fmt.Errorf("alphabet: %w", err)
			}
			m, err := model.New(kind, alpha, model.Options{ChunkLength: chunkLength})
			if err != nil {
				return err
			}

			trace, runErr := evaluate.Run(m, symbols)
			printTrace(cmd, trace)
			if runErr != nil {
				return runErr
			}
			c.log.Debug("predict finished", "model", kind.String(), "steps", len(trace.Steps))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelName, "model", "m", "tp", "learner name")
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "comma separated symbol sequence")
	cmd.Flags().StringSliceVar(&symbolSet, "alphabet", nil, "symbol set (default: the symbols seen)")
	cmd.Flags().IntVar(&chunkLength, "chunk-length", model.DefaultChunkLength, "chunk length for the chunk learners")
	_ = cmd.MarkFlagRequired("symbols")
	return cmd
}

func printTrace(cmd *cobra.Command, trace evaluate.Trace) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSYMBOL\tP\tCOST(bits)\tLL")
	for i, s := range trace.Steps {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.4f\n", i+1, s.Symbol, s.Prior[s.Index], s.Cost, s.LogLikelihood)
	}
	w.Flush()

	if len(trace.Steps) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nmodel=%s parameters=%d log-likelihood=%.4f bic=%.4f\n",
		trace.Model, trace.ParameterCount, trace.TotalLogLikelihood(), trace.BIC())
}
