package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/regform/internal/config"
	"github.com/vango-dev/regform/internal/errors"
)

// configFlags are shared by every command that loads configuration.
type configFlags struct {
	path   string
	dotenv string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "Config file (default ./"+config.ConfigFileName+" if present)")
	cmd.Flags().StringVar(&f.dotenv, "env-file", config.DotEnvFileName, "Dotenv file with REGFORM_* overrides")
}

// load resolves the config file and applies the environment layers.
func (f *configFlags) load() (*config.Config, error) {
	path := f.path
	if path == "" && config.Exists(".") {
		path = config.ConfigFileName
	}
	return config.Load(path, f.dotenv)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration",
	}
	cmd.AddCommand(configShowCmd(), configValidateCmd(), configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Long: `Print the configuration after defaults, the config file,
the dotenv file and REGFORM_* environment variables are applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

func configValidateCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			source := cfg.Path()
			if source == "" {
				source = "defaults"
			}
			success(cmd.OutOrStdout(), "Configuration is valid (%s)", source)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a " + config.ConfigFileName + " with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) && !force {
				return errors.Newf(errors.CategoryCLI, "%s already exists in %s", config.ConfigFileName, dir).
					WithSuggestion("Use --force to overwrite it")
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Created %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
