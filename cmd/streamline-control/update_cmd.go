package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/cli/output"
	"github.com/theorangealliance/streamline-control/internal/config"
	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/logs"
	"github.com/theorangealliance/streamline-control/internal/update"
)

// serverWaitSlack is added to the drain timeout before the controller gives
// up waiting for the server on exit.
const serverWaitSlack = 5 * time.Second

const updateTimeout = 5 * time.Minute

var (
	updateOutput string
	updateJSON   bool
)

func newPipeline(cfg *config.Config, bus events.Sender, logger *zap.SugaredLogger, opts ...update.PipelineOption) *update.Pipeline {
	client := update.NewGitHubClient(logger, cfg.Update.APIBaseURL, cfg.Update.Repo, cfg.Update.AllowPrerelease)
	installer := update.NewBinaryInstaller(logger, config.AppName)
	return update.NewPipeline(version, client, installer, bus, logger, opts...)
}

func newUpdateCommand() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and install new releases",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check GitHub for a newer release",
		Args:  cobra.NoArgs,
		RunE:  runUpdateCheck,
	}
	checkCmd.Flags().StringVarP(&updateOutput, "output", "o", "", "Output format (table, json, yaml)")
	checkCmd.Flags().BoolVar(&updateJSON, "json", false, "Shorthand for -o json")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Download and install the latest release in place",
		Args:  cobra.NoArgs,
		RunE:  runUpdateApply,
	}

	updateCmd.AddCommand(checkCmd, applyCmd)
	return updateCmd
}

// commandPipeline builds a pipeline for a one-shot command. Its bus has no
// reader; the command uses Check and Apply directly.
func commandPipeline(cmd *cobra.Command) (*update.Pipeline, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Update.Disabled {
		return nil, nil, &exitError{code: ExitCodeConfigError, err: errors.New("updates are disabled in the configuration")}
	}

	logger, err := logs.SetupCommandLogger(false, cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	bus := events.NewBus()
	bus.Close()
	return newPipeline(cfg, bus, logger.Sugar()), logger, nil
}

func runUpdateCheck(cmd *cobra.Command, _ []string) error {
	format := output.ResolveFormat(updateOutput, updateJSON)
	formatter, err := output.NewFormatter(format, cmd.OutOrStdout())
	if err != nil {
		return reportError(cmd, "table", ExitCodeConfigError,
			output.NewStructuredError(output.ErrCodeInvalidOutputFormat, err.Error()))
	}

	pipeline, logger, err := commandPipeline(cmd)
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) && exitErr.code == ExitCodeConfigError {
			return reportError(cmd, format, exitErr.code,
				output.NewStructuredError(output.ErrCodeConfigInvalid, exitErr.err.Error()))
		}
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), updateTimeout)
	defer cancel()

	result, err := pipeline.Check(ctx)
	if err != nil {
		return reportError(cmd, format, ExitCodeGeneralError, updateError(err, output.ErrCodeUpdateCheckFailed))
	}

	out, err := formatter.Format(result)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runUpdateApply(cmd *cobra.Command, _ []string) error {
	pipeline, logger, err := commandPipeline(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), updateTimeout)
	defer cancel()

	result, err := pipeline.Check(ctx)
	if err != nil {
		return reportError(cmd, "table", ExitCodeGeneralError, updateError(err, output.ErrCodeUpdateCheckFailed))
	}
	if !result.Available() || result.Target == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Already running the latest version (%s).\n", result.CurrentVersion)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installing %s...\n", result.Target.Version)
	if err := pipeline.Apply(ctx, *result.Target); err != nil {
		return reportError(cmd, "table", ExitCodeGeneralError, updateError(err, output.ErrCodeUpdateApplyFailed))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated to %s. Restart %s to use it.\n", result.Target.Version, config.AppName)
	return nil
}

// updateError maps pipeline failures onto structured error codes
func updateError(err error, fallback string) output.StructuredError {
	serr := output.FromError(err, fallback)
	switch {
	case errors.Is(err, update.ErrInvalidVersion):
		serr.Code = output.ErrCodeNotARelease
		serr = serr.WithGuidance("Development builds cannot be updated; install a tagged release.")
	case errors.Is(err, update.ErrNoAsset):
		serr.Code = output.ErrCodeNoAsset
		serr = serr.WithGuidance("The release has no download for this platform.")
	case errors.Is(err, update.ErrUpdateCheckNetwork):
		serr = serr.WithGuidance("Check your network connection and try again.").
			WithRecoveryCommand(config.AppName + " update check")
	}
	return serr
}

// reportError prints a structured error in the requested format and returns
// an exit error that main does not print again.
func reportError(cmd *cobra.Command, format string, code int, serr output.StructuredError) error {
	formatter, err := output.NewFormatter(format, cmd.ErrOrStderr())
	if err != nil {
		formatter, _ = output.NewFormatter("table", cmd.ErrOrStderr())
	}
	if text, ferr := formatter.FormatError(serr); ferr == nil {
		fmt.Fprint(cmd.ErrOrStderr(), text)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", serr.Message)
	}
	return &exitError{code: code, err: serr, silent: true}
}
