package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/config"
	"github.com/jywlabs/kickoff/internal/constraints"
	"github.com/jywlabs/kickoff/internal/display"
	"github.com/jywlabs/kickoff/internal/eventlog"
	"github.com/jywlabs/kickoff/internal/form"
	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/output"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/render"
	"github.com/jywlabs/kickoff/internal/template"
)

// tablePreviewRows caps the tasks table printed after a run.
const tablePreviewRows = 10

var (
	planConstraintsFlag     []string
	planConstraintsFileFlag string
	planMaxAttemptsFlag     int
	planEngineFlag          string
	planOutputFlag          string
	planHTMLFlag            bool
	planSnapshotsFlag       bool
	planLogFlag             string
	planNoWriteFlag         bool
	planStrictFlag          bool
	planInteractiveFlag     bool
	planJSONFlag            bool
)

var planCmd = &cobra.Command{
	Use:   "plan [idea...]",
	Short: "Generate a PRD, milestones and tasks from an idea",
	Long: `Generate a project plan from a free-text idea.

The plan command runs four steps:
  1. Interpret the goal
  2. Write a PRD
  3. Split the work into milestones
  4. Break the milestones into tasks

The PRD, milestones and tasks are checked against quality rules and revised
until they pass or --max-attempts is reached. Documents that still have
issues are kept and reported as warnings.

Artifacts are written to the output directory:
  GOAL.json  PRD.md  MILESTONES.md  TASKS.csv  events.jsonl

If no idea is given and stdin is a terminal, a form asks for one.

Examples:
  kickoff plan "study planner for university students"
  kickoff plan "expense tracker" -c "mobile first" -c "no backend"
  kickoff plan "chat app" --constraints-file constraints.txt -a 5
  kickoff plan "habit tracker" -e claude --html --snapshots
  kickoff plan -i                                # Open the form`,
	Args: cobra.ArbitraryArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringArrayVarP(&planConstraintsFlag, "constraint", "c", nil, "Constraint to respect (repeatable)")
	planCmd.Flags().StringVar(&planConstraintsFileFlag, "constraints-file", "", "File with one constraint per line")
	planCmd.Flags().IntVarP(&planMaxAttemptsFlag, "max-attempts", "a", 0, "Attempts per validated step, 1-5 (default from config)")
	planCmd.Flags().StringVarP(&planEngineFlag, "engine", "e", "", "Engine to use (openai, claude)")
	planCmd.Flags().StringVarP(&planOutputFlag, "output", "o", "", "Output directory (default from config)")
	planCmd.Flags().BoolVar(&planHTMLFlag, "html", false, "Also write PRD.html and MILESTONES.html")
	planCmd.Flags().BoolVar(&planSnapshotsFlag, "snapshots", false, "Write every candidate document")
	planCmd.Flags().StringVar(&planLogFlag, "log", "", "Event log path (default <output>/events.jsonl)")
	planCmd.Flags().BoolVar(&planNoWriteFlag, "no-write", false, "Do not write artifacts or the event log")
	planCmd.Flags().BoolVar(&planStrictFlag, "strict", false, "Exit with code 2 when issues remain")
	planCmd.Flags().BoolVarP(&planInteractiveFlag, "interactive", "i", false, "Enter the idea in a form")
	planCmd.Flags().BoolVar(&planJSONFlag, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(planCmd)
}

// planOptions holds the resolved settings of one plan run.
type planOptions struct {
	Engine      string
	MaxAttempts int
	OutputDir   string
	HTML        bool
	Snapshots   bool
	LogPath     string
	NoWrite     bool
	Strict      bool
	JSON        bool
}

// progressView renders run progress. display.Display and output.Printer
// implement it.
type progressView interface {
	pipeline.Observer
	ShowCommandHeader(command, target, engine string)
	ShowArtifacts(paths []string)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), verboseFlag)

	opts := planOptions{
		Engine:      cfg.Engine,
		MaxAttempts: cfg.MaxAttempts,
		OutputDir:   cfg.OutputDir,
		HTML:        cfg.HTML || planHTMLFlag,
		Snapshots:   cfg.Snapshots || planSnapshotsFlag,
		LogPath:     planLogFlag,
		NoWrite:     planNoWriteFlag,
		Strict:      planStrictFlag,
		JSON:        planJSONFlag,
	}
	if planEngineFlag != "" {
		opts.Engine = strings.ToLower(planEngineFlag)
	}
	if cmd.Flags().Changed("max-attempts") {
		opts.MaxAttempts = planMaxAttemptsFlag
	}
	if planOutputFlag != "" {
		opts.OutputDir = planOutputFlag
	}
	if err := config.ValidateAttempts(opts.MaxAttempts); err != nil {
		return fmt.Errorf("--max-attempts: %w", err)
	}

	in := pipeline.Input{Idea: strings.TrimSpace(strings.Join(args, " "))}
	in.Constraints, err = collectConstraints(planConstraintsFlag, planConstraintsFileFlag)
	if err != nil {
		return err
	}
	project, err := constraints.Load(".")
	if err != nil {
		return err
	}
	in.Constraints = constraints.Merge(project, in.Constraints)

	if planInteractiveFlag || (in.Idea == "" && display.IsTerminal(os.Stdin)) {
		res, err := form.Run(ctx, form.Result{Idea: in.Idea, Constraints: in.Constraints, MaxAttempts: opts.MaxAttempts})
		if errors.Is(err, form.ErrCanceled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}
		if err != nil {
			return err
		}
		in.Idea, in.Constraints, opts.MaxAttempts = res.Idea, res.Constraints, res.MaxAttempts
	}
	if in.Idea == "" {
		return fmt.Errorf("no project idea provided - pass it as an argument or use --interactive")
	}

	view := newProgressView(cmd, opts.JSON)

	var onRetry func(time.Duration, int, int)
	d, isDisplay := view.(*display.Display)
	if isDisplay {
		onRetry = d.ShowRetry
	}
	gen, err := newGenerator(cfg, opts.Engine, logger, onRetry)
	if err != nil {
		return err
	}

	if isDisplay {
		d.ShowRunHeader(gen.Name(), opts.MaxAttempts, in.Idea)
	}

	return executePlan(ctx, gen, in, opts, view, cmd.OutOrStdout(), logger)
}

// newProgressView picks the terminal display for a TTY and plain lines
// otherwise. With --json, progress goes to stderr so stdout stays parseable.
func newProgressView(cmd *cobra.Command, jsonOut bool) progressView {
	if jsonOut {
		return output.New(cmd.ErrOrStderr())
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && display.IsTerminal(f) {
		return display.New(f)
	}
	return output.New(cmd.OutOrStdout())
}

// collectConstraints merges repeated --constraint values with the lines of
// the constraints file.
func collectConstraints(flags []string, file string) ([]string, error) {
	out := form.ParseConstraints(strings.Join(flags, "\n"))
	if file == "" {
		return out, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints file: %w", err)
	}
	return append(out, form.ParseConstraints(string(data))...), nil
}

// executePlan runs the pipeline with gen and reports the result on view and out.
func executePlan(ctx context.Context, gen generator.Generator, in pipeline.Input, opts planOptions, view progressView, out io.Writer, logger *slog.Logger) error {
	view.ShowCommandHeader("Plan", in.Idea, gen.Name())

	popts := []pipeline.Option{
		pipeline.WithMaxAttempts(opts.MaxAttempts),
		pipeline.WithObserver(view),
		pipeline.WithLogger(logger),
	}

	var writer *output.Writer
	if !opts.NoWrite {
		writer = output.NewWriter(opts.OutputDir, opts.HTML, opts.Snapshots)
		popts = append(popts, pipeline.WithObserver(writer))
	}

	logPath := opts.LogPath
	if logPath == "" && !opts.NoWrite {
		logPath = filepath.Join(opts.OutputDir, template.EventsFile)
	}
	if logPath != "" {
		events, err := eventlog.Open(logPath)
		if err != nil {
			return err
		}
		defer events.Close()
		popts = append(popts, pipeline.WithObserver(events))
	}

	res, err := pipeline.New(gen, popts...).Run(ctx, in)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	if writer != nil {
		paths, err := writer.Write(res)
		if err != nil {
			return err
		}
		if err := writer.Err(); err != nil {
			logger.Warn("snapshots incomplete", "error", err)
		}
		view.ShowArtifacts(paths)
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		fmt.Fprintln(out)
		render.TasksTable(out, res.Tasks, tablePreviewRows)
	}

	logger.Debug("plan finished", "run_id", res.RunID, "duration", res.Duration.Round(time.Millisecond), "issues", res.IssueCount())

	if opts.Strict && res.HasWarnings() {
		return &ExitError{
			Code: 2,
			Err:  fmt.Errorf("%s kept unresolved issues", output.Plural(len(res.Warnings()), "step")),
		}
	}
	return nil
}
