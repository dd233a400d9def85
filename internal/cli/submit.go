package cli

import (
	"github.com/spf13/cobra"

	"geoflow/array-engine/internal/backend"
	"geoflow/array-engine/internal/config"
	"geoflow/array-engine/internal/submit"
	"geoflow/array-engine/pkg/logger"
)

func newSubmitCmd() *cobra.Command {
	var (
		workdir   string
		paramFile string
		login     bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the master workflow job to the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paramFile)
			if err != nil {
				return err
			}
			initLogging(&cfg.Logging)

			bk, err := backend.New(&cfg.System)
			if err != nil {
				return err
			}

			s := submit.New(&cfg.System, bk, logger.L())
			return s.Submit(cmd.Context(), workdir, paramFile, login)
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "working directory of the run")
	cmd.Flags().StringVar(&paramFile, "parameter_file", config.DefaultParameterFile, "parameter file name")
	cmd.Flags().BoolVar(&login, "login", false,
		"run the master job directly on the invoking node, bypassing the batch header")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var paramFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a parameter file and its backend configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paramFile)
			if err != nil {
				return err
			}
			if _, err := backend.New(&cfg.System); err != nil {
				return err
			}
			cmd.Printf("parameter file %s is valid (backend: %s)\n", paramFile, cfg.System.System)
			return nil
		},
	}

	cmd.Flags().StringVar(&paramFile, "parameter_file", config.DefaultParameterFile, "parameter file name")

	return cmd
}
