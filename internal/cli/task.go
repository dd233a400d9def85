package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geoflow/array-engine/internal/dispatch"
	"geoflow/array-engine/internal/payload"
	"geoflow/array-engine/internal/registry"
	"geoflow/array-engine/pkg/logger"
)

// slurmTaskIDEnv is the array-member binding set by SLURM itself; consulted
// when the dispatcher's own binding is absent.
const slurmTaskIDEnv = "SLURM_ARRAY_TASK_ID"

func newTaskCmd() *cobra.Command {
	var (
		funcsPath   string
		kwargsPath  string
		environment string
	)

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Execute one array member: load the work unit handles and run the function list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnvironment(environment); err != nil {
				return err
			}

			logger.Init(&logger.Config{
				Level:  os.Getenv("LOG_LEVEL"),
				Format: "console",
				Output: "stdout",
			})

			taskID, err := resolveTaskID()
			if err != nil {
				return err
			}

			wu, err := payload.Load(funcsPath, kwargsPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			return runFunctionList(ctx, wu, taskID)
		},
	}

	cmd.Flags().StringVar(&funcsPath, "funcs", "", "path to the serialized function list handle")
	cmd.Flags().StringVar(&kwargsPath, "kwargs", "", "path to the serialized keyword argument handle")
	cmd.Flags().StringVar(&environment, "environment", "", "comma-separated KEY=value bindings applied before execution")
	_ = cmd.MarkFlagRequired("funcs")
	_ = cmd.MarkFlagRequired("kwargs")

	return cmd
}

// applyEnvironment applies the dispatcher's KEY=value binding string to this
// process's environment.
func applyEnvironment(environment string) error {
	if strings.TrimSpace(environment) == "" {
		return nil
	}
	for _, pair := range strings.Split(environment, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return fmt.Errorf("malformed environment binding %q", pair)
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// resolveTaskID reads this task's TaskId from the environment: the
// dispatcher's own binding first, the scheduler's array binding second, and
// 0 for a bare single run.
func resolveTaskID() (int, error) {
	for _, key := range []string{dispatch.TaskIDEnv, slurmTaskIDEnv} {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			return 0, fmt.Errorf("invalid %s value %q", key, raw)
		}
		return id, nil
	}
	return 0, nil
}

// runFunctionList resolves each function name through the registry and runs
// them in order, stopping at the first failure.
func runFunctionList(ctx context.Context, wu payload.WorkUnit, taskID int) error {
	tc := registry.TaskContext{TaskID: taskID, Kwargs: wu.Kwargs}

	for _, name := range wu.Funcs {
		fn, err := registry.Resolve(name)
		if err != nil {
			return err
		}
		logger.Debug("running function",
			zap.String("func", name), zap.Int("task_id", taskID))
		if err := fn(ctx, tc); err != nil {
			return fmt.Errorf("function %s failed for task %d: %w", name, taskID, err)
		}
	}
	return nil
}
