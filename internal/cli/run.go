package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"geoflow/array-engine/internal/backend"
	"geoflow/array-engine/internal/config"
	"geoflow/array-engine/internal/dispatch"
	"geoflow/array-engine/internal/monitor"
	"geoflow/array-engine/internal/payload"
	"geoflow/array-engine/internal/registry"
	"geoflow/array-engine/pkg/logger"
)

func newRunCmd() *cobra.Command {
	var (
		paramFile  string
		funcNames  string
		kwargsFile string
		single     bool
		extraEnv   []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch a function list as a job array on the configured system",
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

			wu := payload.WorkUnit{Funcs: splitFuncNames(funcNames)}
			if kwargsFile != "" {
				data, err := os.ReadFile(kwargsFile)
				if err != nil {
					return fmt.Errorf("read kwargs file: %w", err)
				}
				if err := yaml.Unmarshal(data, &wu.Kwargs); err != nil {
					return fmt.Errorf("parse kwargs file %s: %w", kwargsFile, err)
				}
			}

			d := dispatch.New(&cfg.System, bk, registry.DefaultRegistry, logger.L())

			if cfg.System.MonitorAddress != "" {
				srv := monitor.New(d, cfg.System.MonitorAddress, logger.L())
				srv.Start()
				defer srv.Shutdown()
			}

			return d.Run(cmd.Context(), wu, dispatch.Options{
				Single:   single,
				ExtraEnv: extraEnv,
			})
		},
	}

	cmd.Flags().StringVar(&paramFile, "parameter_file", config.DefaultParameterFile, "parameter file name")
	cmd.Flags().StringVar(&funcNames, "funcs", "", "comma-separated registered function names, executed in order")
	cmd.Flags().StringVar(&kwargsFile, "kwargs", "", "yaml file holding the keyword-argument map shared by all tasks")
	cmd.Flags().BoolVar(&single, "single", false, "run exactly one task instead of the full array")
	cmd.Flags().StringArrayVar(&extraEnv, "env", nil, "additional KEY=value binding for this dispatch (repeatable)")
	_ = cmd.MarkFlagRequired("funcs")

	return cmd
}

func splitFuncNames(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
