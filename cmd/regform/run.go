package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/regform/internal/config"
	"github.com/vango-dev/regform/internal/registration"
	"github.com/vango-dev/regform/internal/scenario"
	"github.com/vango-dev/regform/pkg/features/form"
	"github.com/vango-dev/regform/pkg/toast"
)

type runOptions struct {
	config      configFlags
	metricsAddr string
	quiet       bool
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Run scenario files against the registration form",
		Long: `Run one or more scenario files. Each scenario gets a fresh form;
the rendered form is printed after every step.

Waits run in real time, so a scenario takes as long as its wait steps.
The command fails on the first expectation that does not hold, and on
a scenario that ends with a failed submission.

Fields:
  firstName   First Name (3+ characters by default, must not contain "error")
  lastName    Last Name (2+ characters by default)
  email       Email (a valid address)

Examples:
  regform run scenarios/happy.yaml
  regform run --quiet scenarios/*.yaml
  regform run --metrics-addr=:9090 scenarios/happy.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}

	opts.config.register(cmd)
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print the summary line per scenario")

	return cmd
}

func runScenarios(ctx context.Context, stdout, stderr io.Writer, opts runOptions, files []string) error {
	cfg, err := opts.config.load()
	if err != nil {
		return err
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	logger := newLogger(stderr, cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := form.NewMetrics(form.WithRegistry(reg))

	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
		info(stdout, "Metrics on http://%s/metrics", cfg.MetricsAddr)
	}

	for _, file := range files {
		sc, err := scenario.Load(file)
		if err != nil {
			return err
		}
		report, err := runScenario(ctx, stdout, cfg, logger, metrics, sc, opts.quiet)
		if err != nil {
			warn(stdout, "%s: failed after %d steps", file, report.Steps)
			return err
		}
		success(stdout, "%s: %d steps, %d checks passed in %s",
			displayName(sc, file), report.Steps, report.Checks, report.Duration.Round(time.Millisecond))
	}
	return nil
}

func runScenario(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger, metrics *form.Metrics, sc *scenario.Scenario, quiet bool) (scenario.Report, error) {
	rec := toast.NewRecorder()
	f, err := registration.New(registration.OptionsFromConfig(cfg), registration.Deps{
		Logger:    logger,
		Notifier:  toast.Multi{rec, toast.LogNotifier{Logger: logger}},
		Metrics:   metrics,
		QueueSize: cfg.QueueSize,
	})
	if err != nil {
		return scenario.Report{}, scenario.FormError(err)
	}
	defer f.Close()

	runner := &scenario.Runner[registration.Values]{
		Form:   f,
		Toasts: rec,
		Logger: logger,
	}
	if !quiet {
		runner.OnStep = func(res scenario.Result[registration.Values]) {
			fmt.Fprintf(w, "\n--- step %d: %s\n", res.Index+1, res.Step)
			fmt.Fprint(w, registration.Render(res.State))
		}
	}
	report, err := runner.Run(ctx, sc)
	if err != nil {
		return report, err
	}
	return report, scenario.FormError(f.State().SubmitError)
}

func displayName(sc *scenario.Scenario, file string) string {
	if sc.Name != "" {
		return sc.Name
	}
	return file
}

// serveMetrics starts the metrics listener and returns a function that
// shuts it down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{
		Handler:           metricsRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
