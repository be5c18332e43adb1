package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/template"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .kickoff/ directory",
	Long: `Initialize the .kickoff/ directory in the current project.

Creates:
  .kickoff/
    config.yaml    # Engine, attempts and output settings
    constraints/   # Constraints added to every plan

After init, set OPENAI_API_KEY (or add it to .env) and run 'kickoff plan'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initProject(".", cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// initProject creates .kickoff/ under dir with the default files.
func initProject(dir string, w io.Writer) error {
	configDir := filepath.Join(dir, template.KickoffDir)

	if _, err := os.Stat(configDir); err == nil {
		return fmt.Errorf("%s/ already exists", template.KickoffDir)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	for filename, content := range template.DefaultFiles() {
		path := filepath.Join(configDir, filepath.FromSlash(filename))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
	}

	fmt.Fprintf(w, "Initialized %s/\n\n", template.KickoffDir)
	fmt.Fprintln(w, "Created:")
	fmt.Fprintf(w, "  %s/%s    - Engine, attempts and output settings\n", template.KickoffDir, template.ConfigFile)
	fmt.Fprintf(w, "  %s/%s/   - Constraints added to every plan\n\n", template.KickoffDir, template.ConstraintsDir)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Set OPENAI_API_KEY or add it to .env")
	fmt.Fprintln(w, `  2. Run: kickoff plan "your project idea"`)
	return nil
}
