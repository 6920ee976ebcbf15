package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
)

// Exit codes.
const (
	exitFailure     = 1
	exitInput       = 2
	exitRowFailures = 3
)

// app is the state shared by the subcommands once the configuration is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg *Config
	log *logger.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Pipe-flow friction factor calculator",
		Long: `pipeflow derives flow rate, velocity, Reynolds number, experimental and
theoretical friction factors and their uncertainties from a CSV table of
pipe-flow trials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: search ./cmd/pipeflow/config.yml, ./config.yml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newComputeCommand(a),
		newPlotCommand(a),
		newServeCommand(a),
		newStagesCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func (a *app) setup(stderr io.Writer) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	out := stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}
	a.log = logger.NewWithWriter(out, &cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(a.log)
	return nil
}

// calculator builds a calculator from the loaded configuration.
func (a *app) calculator(opts ...flow.Option) (*flow.Calculator, error) {
	base := []flow.Option{
		flow.WithLogger(a.log),
		flow.WithKeepIntermediate(a.cfg.Output.KeepIntermediate),
	}
	return flow.New(a.cfg.Physics, append(base, opts...)...)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return exitFailure
	}
	switch appErr.Code {
	case apperrors.ErrCodeRowFailures:
		return exitRowFailures
	case apperrors.ErrCodeSchema, apperrors.ErrCodeCalibration, apperrors.ErrCodeInvalidInput:
		return exitInput
	default:
		return exitFailure
	}
}
