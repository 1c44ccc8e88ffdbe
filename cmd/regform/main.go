package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/regform/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errorFormat is the --error-format flag; errorOutput is its parsed value.
var (
	errorFormat string
	errorOutput = errors.OutputPretty
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		errors.Print(os.Stderr, err, errorOutput)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regform",
		Short: "User registration form with debounced async validation",
		Long: `regform runs the user registration form headless.

The form has three fields (first name, last name, email) with
synchronous rules, a debounced async check on the first name and
a simulated submit. Scenario files script user sessions and
assert on the resulting form state.

Examples:
  regform run scenarios/happy.yaml
  regform run --metrics-addr=:9090 scenarios/*.yaml
  regform run --error-format=json scenarios/rejected.yaml
  regform config show`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out, err := errors.ParseOutput(errorFormat)
			if err != nil {
				return err
			}
			errorOutput = out
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&errorFormat, "error-format", string(errors.OutputPretty),
		"Error output: pretty, compact or json")

	cmd.AddCommand(
		runCmd(),
		configCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
