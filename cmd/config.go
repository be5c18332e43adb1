package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jywlabs/kickoff/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Show the effective kickoff configuration.

Settings come from .kickoff/config.yaml when present, with defaults for
missing keys. KICKOFF_ENGINE overrides the engine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(".", cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// printConfig prints the effective configuration for dir as YAML.
func printConfig(dir string, w io.Writer) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	path := config.FilePath(dir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "No %s found (using defaults)\n", path)
		fmt.Fprintln(w, "Run 'kickoff init' to create a configuration file.")
	} else {
		fmt.Fprintf(w, "Current configuration (%s):\n", path)
	}
	fmt.Fprintln(w)

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = w.Write(out)
	return err
}
