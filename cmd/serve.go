package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/config"
	"github.com/jywlabs/kickoff/internal/constraints"
	"github.com/jywlabs/kickoff/internal/eventlog"
	"github.com/jywlabs/kickoff/internal/metrics"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/server"
)

var (
	serveAddrFlag   string
	serveEngineFlag string
	serveLogFlag    string
	serveHTMLFlag   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning pipeline over HTTP",
	Long: `Serve the planning pipeline as a JSON API.

Routes:
  GET  /v1/health     Liveness and active engine
  GET  /v1/engines    Registered engines
  POST /v1/plans      Run the pipeline for {"idea", "constraints", "max_attempts"}
  GET  /v1/openapi    OpenAPI document
  GET  /metrics       Prometheus metrics

Examples:
  kickoff serve
  kickoff serve --addr 127.0.0.1:9090 -e claude --log events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVarP(&serveEngineFlag, "engine", "e", "", "Engine to use (openai, claude)")
	serveCmd.Flags().StringVar(&serveLogFlag, "log", "", "Append run events to this JSONL file")
	serveCmd.Flags().BoolVar(&serveHTMLFlag, "html", false, "Include rendered HTML in plan responses")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), verboseFlag)

	gen, err := newGenerator(cfg, serveEngineFlag, logger, nil)
	if err != nil {
		return err
	}

	project, err := constraints.Load(".")
	if err != nil {
		return err
	}

	var observers []pipeline.Observer
	if serveLogFlag != "" {
		events, err := eventlog.Open(serveLogFlag)
		if err != nil {
			return err
		}
		defer events.Close()
		observers = append(observers, events)
	}

	h, err := server.New(server.Config{
		Generator:   gen,
		MaxAttempts: cfg.MaxAttempts,
		HTML:        cfg.HTML || serveHTMLFlag,
		Version:     Version,
		Metrics:     metrics.New(),
		Observers:   observers,
		Constraints: project,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddrFlag != "" {
		addr = serveAddrFlag
	}
	fmt.Fprintf(cmd.OutOrStdout(), "kickoff API listening on %s (engine: %s)\n", addr, gen.Name())
	return server.ListenAndServe(ctx, addr, h, logger)
}
