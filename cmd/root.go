package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/template"
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "kickoff",
	Short: "Kickoff - turn a project idea into a PRD, milestones and a task backlog",
	Long: `Kickoff turns a free-text project idea into a product requirements
document, a milestone plan and a task backlog using a language model.

Each document is checked against quality rules and revised until it
passes or the attempt budget runs out.

Workflow:
  kickoff init                       Create .kickoff/config.yaml
  kickoff plan "study planner app"   Generate PRD, milestones and tasks
  kickoff validate output/plan.json  Check a document locally
  kickoff serve                      Expose the pipeline over HTTP

Environment:
  OPENAI_API_KEY    API key for the openai engine (also read from .env)
  OPENAI_BASE_URL   Alternative OpenAI-compatible endpoint
  KICKOFF_ENGINE    Overrides the configured engine`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(template.EnvFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug details to stderr")
}

// ExitError ends the process with a specific exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadEnv reads KEY=value pairs from path into the environment. Variables
// already set win. A missing file is not an error.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// newLogger returns a text logger at debug level when verbose, warn otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
