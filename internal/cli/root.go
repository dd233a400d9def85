// Package cli implements the array-engine command line: submitting the
// master workflow job, running the per-task entry point, and validating
// parameter files.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geoflow/array-engine/internal/config"
	"geoflow/array-engine/internal/dispatch"
	"geoflow/array-engine/internal/submit"
	"geoflow/array-engine/pkg/logger"
)

// Version is the current release.
const Version = "0.1.0"

// Process exit codes. Task failures and submission failures are
// distinguished so calling scripts can tell them apart.
const (
	ExitOK            = 0
	ExitUsage         = 1
	ExitTaskFailure   = 2
	ExitSubmitFailure = 3
)

var (
	flagDebug bool
	flagQuiet bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "array-engine",
		Short:         "Job-array execution and submission layer for HPC workflows",
		Long: `array-engine turns an ordered list of workflow functions into
externally-submitted jobs on a workstation process pool or an HPC batch
scheduler, waits for the spawned work under a wall-clock budget, and folds
per-task exit statuses into a single pass/fail verdict.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "log errors only")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newSubmitCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the array-engine version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("array-engine %s\n", Version)
		},
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return ExitOK
}

// exitCode maps a command error onto the process exit code.
func exitCode(err error) int {
	var report *dispatch.FailureReport
	switch {
	case errors.As(err, &report):
		return ExitTaskFailure
	case errors.Is(err, submit.ErrSubmitFailed):
		return ExitSubmitFailure
	default:
		return ExitUsage
	}
}

// initLogging initializes the process logger from the parameter file,
// honouring the --debug and --quiet overrides.
func initLogging(cfg *config.LogConfig) {
	lc := &logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		FilePath:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}
	if flagDebug {
		lc.Level = "debug"
	}
	if flagQuiet {
		lc.Level = "error"
	}
	logger.Init(lc)
}
