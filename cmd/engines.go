package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/config"
	"github.com/jywlabs/kickoff/internal/generator"

	// Register available engines.
	_ "github.com/jywlabs/kickoff/internal/generator/claude"
	_ "github.com/jywlabs/kickoff/internal/generator/openai"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List generator engines",
	Long: `List the registered generator engines. The active engine comes from
.kickoff/config.yaml or KICKOFF_ENGINE.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}
		listEngines(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}

func listEngines(w io.Writer, cfg *config.Config) {
	for _, name := range generator.Available() {
		marker := "  "
		if name == cfg.Engine {
			marker = "* "
		}
		model := cfg.Engines[name].Model
		if model == "" {
			model = "default model"
		}
		fmt.Fprintf(w, "%s%-8s %s\n", marker, name, model)
	}
}

// newGenerator creates a backend by name with settings from cfg.
// An empty name selects the configured engine. onRetry may be nil.
func newGenerator(cfg *config.Config, name string, logger *slog.Logger, onRetry func(time.Duration, int, int)) (generator.Generator, error) {
	if name == "" {
		name = cfg.Engine
	}
	name = strings.ToLower(name)
	gc := cfg.GeneratorConfig(name)
	gc.Logger = logger
	gc.OnRetry = onRetry
	return generator.New(name, gc)
}
