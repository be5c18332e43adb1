// Package server exposes the planning pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jywlabs/kickoff/internal/config"
	"github.com/jywlabs/kickoff/internal/constraints"
	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/metrics"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/render"
)

// BasePath prefixes every API route.
const BasePath = "/v1"

// Config for the HTTP API handler.
type Config struct {
	Generator   generator.Generator
	MaxAttempts int  // Default budget when a request omits max_attempts
	HTML        bool // Include rendered HTML in plan responses
	Version     string

	// Metrics is served at /metrics and observes every run when set.
	Metrics *metrics.Metrics
	// Observers are attached to every run, e.g. the event log.
	Observers []pipeline.Observer
	// Constraints are added ahead of each request's own constraints.
	Constraints []string
	Logger    *slog.Logger
}

type apiErrorBody struct {
	Code    string `json:"code" example:"format_error"`
	Message string `json:"message" example:"prd attempt 1: generator returned non-JSON output"`
	Stage   string `json:"stage,omitempty" example:"prd"`
}

// apiError models the error envelope {"error": {...}}.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the planning API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Generator == nil {
		return nil, errors.New("server: generator is required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = pipeline.DefaultMaxAttempts
	}
	if err := config.ValidateAttempts(cfg.MaxAttempts); err != nil {
		return nil, fmt.Errorf("server: max attempts %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, "")
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
			msg = validationMessage(msg, errs)
		}
		return newAPIError(status, "", msg, "")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(cfg.Logger))

	hcfg := huma.DefaultConfig("Kickoff API", cfg.Version)
	hcfg.OpenAPIPath = BasePath + "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, BasePath)

	registerHealth(group, cfg)
	registerEngines(group, cfg)
	registerPlans(group, cfg)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}

	return router, nil
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func newAPIError(status int, code, message, stage string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message, Stage: stage},
	}
}

// handleError maps pipeline errors to API errors. Generation failures are
// reported as 502 with the failing stage.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, pipeline.ErrEmptyIdea) {
		return newAPIError(http.StatusBadRequest, "empty_idea", err.Error(), "")
	}
	stage := pipeline.FailedStage(err)
	switch {
	case stage == "":
		return newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "generation_timeout", err.Error(), stage)
	case generator.IsFormatError(err):
		return newAPIError(http.StatusBadGateway, "format_error", err.Error(), stage)
	case doc.IsSchemaMismatch(err):
		return newAPIError(http.StatusBadGateway, "schema_mismatch", err.Error(), stage)
	default:
		return newAPIError(http.StatusBadGateway, "generation_failed", err.Error(), stage)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusBadGateway:
		return "bad_gateway"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func validationMessage(msg string, errs []error) string {
	if len(errs) == 0 {
		return msg
	}
	details := make([]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, e.Error())
	}
	return msg + ": " + strings.Join(details, "; ")
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

func registerHealth(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok", "engine": cfg.Generator.Name(), "version": cfg.Version}}, nil
	})
}

// EnginesResponse lists the generator backends.
type EnginesResponse struct {
	Engines []string `json:"engines"`
	Active  string   `json:"active"`
}

func registerEngines(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-engines",
		Method:      http.MethodGet,
		Path:        "/engines",
		Summary:     "List generator backends",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body EnginesResponse `json:"body"`
	}, error) {
		return &struct {
			Body EnginesResponse `json:"body"`
		}{Body: EnginesResponse{Engines: generator.Available(), Active: cfg.Generator.Name()}}, nil
	})
}

func registerPlans(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-plan",
		Method:        http.MethodPost,
		Path:          "/plans",
		Summary:       "Generate a project plan",
		Description:   "Runs goal interpretation, PRD, milestones and tasks for an idea. Residual validation issues are returned, not raised.",
		DefaultStatus: http.StatusOK,
		Errors:        []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body PlanRequest
	}) (*struct {
		Body PlanResponse `json:"body"`
	}, error) {
		req := input.Body
		maxAttempts := cfg.MaxAttempts
		if req.MaxAttempts != 0 {
			maxAttempts = req.MaxAttempts
		}

		opts := []pipeline.Option{
			pipeline.WithMaxAttempts(maxAttempts),
			pipeline.WithLogger(cfg.Logger),
		}
		if cfg.Metrics != nil {
			opts = append(opts, pipeline.WithObserver(cfg.Metrics))
		}
		for _, obs := range cfg.Observers {
			opts = append(opts, pipeline.WithObserver(obs))
		}

		res, err := pipeline.New(cfg.Generator, opts...).Run(ctx, pipeline.Input{
			Idea:        req.Idea,
			Constraints: constraints.Merge(cfg.Constraints, req.Constraints),
		})
		if err != nil {
			return nil, handleError(err)
		}

		resp, err := newPlanResponse(res, cfg.HTML)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PlanResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func newPlanResponse(res *pipeline.Result, withHTML bool) (PlanResponse, error) {
	resp := PlanResponse{
		RunID:              res.RunID,
		Goal:               res.Goal,
		PRD:                res.PRD,
		Milestones:         res.Milestones,
		Tasks:              res.Tasks,
		Issues:             res.Issues,
		Attempts:           res.Attempts,
		MaxAttempts:        res.MaxAttempts,
		Warnings:           res.Warnings(),
		PRDMarkdown:        res.PRDMarkdown,
		MilestonesMarkdown: res.MilestonesMarkdown,
		TasksCSV:           res.TasksCSV,
		DurationSeconds:    res.DurationSeconds(),
	}
	if resp.Warnings == nil {
		resp.Warnings = []pipeline.Warning{}
	}
	if withHTML {
		var err error
		if resp.PRDHTML, err = render.HTML(res.PRDMarkdown); err != nil {
			return PlanResponse{}, err
		}
		if resp.MilestonesHTML, err = render.HTML(res.MilestonesMarkdown); err != nil {
			return PlanResponse{}, err
		}
	}
	return resp, nil
}
