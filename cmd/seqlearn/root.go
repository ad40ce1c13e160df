package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/seqlearn/internal/logging"
	"github.com/cognicore/seqlearn/pkg/seqlearn/config"
)

// Version is set at build time.
var Version = "0.1.0"

// cli carries the state shared by subcommands.
type cli struct {
	configPath string
	verbose    bool
	logFile    string

	cfg     config.Config
	log     *slog.Logger
	cleanup func() error
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "seqlearn",
		Short: "Compare sequence learners on response-time data",
		Long: `seqlearn feeds each participant's symbol stream to a family of online
learners (transition probability, chunk learners, uniform baseline) and
scores how well each learner's surprise predicts the participant's
response times.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.cleanup != nil {
				if err := c.cleanup(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: close log file: %v\n", err)
				}
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "also write JSON logs to this file")

	root.AddCommand(newRunCmd(c))
	root.AddCommand(newPredictCmd(c))
	root.AddCommand(newRunsCmd(c))
	root.AddCommand(newVersionCmd())
	return root
}

func (c *cli) setup() error {
	c.cfg = config.Default()
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c.cfg = cfg
	}

	level := c.cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	file := c.cfg.Log.File
	if c.logFile != "" {
		file = c.logFile
	}
	c.log, c.cleanup = logging.Setup(level, file)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seqlearn %s\n", Version)
		},
	}
}
