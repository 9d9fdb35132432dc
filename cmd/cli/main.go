package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	config "github.com/decantlabs/decant/config"
	"github.com/decantlabs/decant/internal/logging"
)

const defaultLogLevel = "info"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(&levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Default().Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		slog.Default().Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	logLevel  string
	logFormat string
	directory string
	profile   string
}

func newRootCommand(levelVar *slog.LevelVar) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "decant",
		Short:         "CLI for 'decant': repackage the Quill desktop installer for Linux",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "cli", "Set log output format (cli, json)")
	root.PersistentFlags().StringVarP(&opts.directory, "directory", "C", config.DefaultProjectDir, "Project directory holding packaging/, sources/ and out/")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "Path to a profile overriding the embedded default")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(opts.logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}

		mode, err := logging.ParseMode(opts.logFormat)
		if err != nil {
			return err
		}
		if mode != logging.ModeCLI {
			slog.SetDefault(logging.New(mode, os.Stderr, levelVar))
		}
		return nil
	}

	root.AddCommand(
		newSourcesCommand(opts),
		newBuildCommand(opts),
		newLaunchCommand(opts),
		newDoctorCommand(),
		newHistoryCommand(),
	)
	return root
}

func newSourcesCommand(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Download the vendor installer and extract an editable source tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := slog.Default().With("command", "sources")

			if err := config.PrepareSources(cmd.Context(), opts.directory, opts.profile, force, cmdLogger); err != nil {
				cmdLogger.Error("source preparation failed", "error", err)
				return err
			}

			cmdLogger.Info("sources ready")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download the installer even when it is already present")

	return cmd
}

func newBuildCommand(opts *globalOptions) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "build <deb|rpm|appimage>",
		Args:  cobra.ExactArgs(1),
		Short: "Build a Linux package from the extracted sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.TrimSpace(args[0])
			if format == "" {
				return fmt.Errorf("package format is required")
			}

			cmdLogger := slog.Default().With("command", "build", "format", format)

			artifact, err := config.BuildPackage(cmd.Context(), format, clean, opts.directory, opts.profile, cmdLogger)
			if err != nil {
				cmdLogger.Error("build failed", "error", err)
				return err
			}

			cmdLogger.Info("build completed", "artifact", artifact.Path)
			fmt.Fprintln(cmd.OutOrStdout(), artifact.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Purge the format's staging cache before building")

	return cmd
}

func newLaunchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Run the most recently built package",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := slog.Default().With("command", "launch")

			found, err := config.LaunchLatest(cmd.Context(), opts.directory, opts.profile, cmdLogger)
			if err != nil {
				cmdLogger.Error("launch failed", "error", err)
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to launch, run 'decant build' first")
			}
			return nil
		},
	}
}

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which external collaborator tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := slog.Default().With("command", "doctor")

			statuses := config.Doctor(cmd.Context(), cmdLogger)

			out := cmd.OutOrStdout()
			missing := 0
			for _, status := range statuses {
				state := "ok"
				if !status.Present {
					state = "missing"
					missing++
				}
				fmt.Fprintf(out, "%s\t%s\t(%s)\n", status.Tool.Name, state, strings.Join(status.Tool.Probe, " "))
			}

			if missing > 0 {
				return fmt.Errorf("%d of %d tools are missing", missing, len(statuses))
			}
			cmdLogger.Info("all tools present", "count", len(statuses))
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded builds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := config.ListHistory()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no recorded builds")
				return nil
			}
			for _, record := range records {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
					record.CreatedAt.Format(time.RFC3339), record.Format, record.Version, record.Mode, record.Artifact)
			}
			return nil
		},
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
