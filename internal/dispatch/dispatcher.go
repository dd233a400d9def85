package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"geoflow/array-engine/internal/backend"
	"geoflow/array-engine/internal/config"
	"geoflow/array-engine/internal/payload"
	"geoflow/array-engine/internal/registry"
)

// taskIDPlaceholder is substituted per TaskId when tasks are launched
// locally. Managed backends rely on the scheduler's own array substitution
// instead.
const taskIDPlaceholder = "{task_id}"

// TaskIDEnv is the environment binding through which a task process learns
// its TaskId. Managed backends fall back to SLURM_ARRAY_TASK_ID.
const TaskIDEnv = "TASKID"

// Options modify one dispatch.
type Options struct {
	// Single runs exactly one task (TaskId 0) synchronously, for work
	// that only needs to happen once, such as smoothing a gradient.
	Single bool

	// ExtraEnv holds additional KEY=value bindings for this dispatch
	// only, appended after the backend's configured environs.
	ExtraEnv []string
}

// Dispatcher executes work units as job arrays. Construct once per run; the
// configuration and backend are read-only for the dispatcher's lifetime.
type Dispatcher struct {
	cfg *config.SystemConfig
	bk  backend.Backend
	reg *registry.Registry
	log *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a dispatcher. The backend must already be validated.
func New(cfg *config.SystemConfig, bk backend.Backend, reg *registry.Registry, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, bk: bk, reg: reg, log: log}
}

// Run serializes the work unit once, then dispatches it as a job array and
// waits for all spawned work to finish within the tasktime budget. It
// returns nil when every task reported a zero exit status, a *FailureReport
// when any task failed or timed out, and other errors for serialization or
// launch problems surfaced before the array completed.
func (d *Dispatcher) Run(ctx context.Context, wu payload.WorkUnit, opts Options) error {
	taskIDs := TaskIDs(d.cfg.Ntask, opts.Single)

	funcsPath, kwargsPath, err := payload.Serialize(wu, d.cfg.PathScratch, d.reg)
	if err != nil {
		return err
	}

	runCall := d.buildRunCall(funcsPath, kwargsPath, opts)
	dispatchID := uuid.NewString()

	d.log.Info("running function list on system",
		zap.String("dispatch_id", dispatchID),
		zap.Strings("funcs", wu.Funcs),
		zap.Int("ntask", len(taskIDs)),
		zap.Bool("single", opts.Single))
	d.log.Debug("run call", zap.String("cmd", runCall))

	d.beginDispatch(dispatchID, len(taskIDs), runCall)

	var report *FailureReport
	if d.bk.Managed() {
		err = d.runManaged(ctx, runCall)
	} else {
		report, err = d.runLocal(ctx, taskIDs, runCall, opts.Single)
	}
	d.endDispatch(report)

	if err != nil {
		return err
	}
	if report != nil {
		d.log.Error("system run error",
			zap.Ints("task_ids", report.TaskIDs),
			zap.String("run_call", report.RunCall))
		return report
	}
	return nil
}

// buildRunCall combines the backend run header, the task entry point, the
// two payload handles and the environment binding string into the command
// template dispatched per task.
func (d *Dispatcher) buildRunCall(funcsPath, kwargsPath string, opts Options) string {
	array := backend.ArraySpec(d.cfg.Ntask, d.cfg.NtaskMax, opts.Single)

	envParts := make([]string, 0, 4)
	if !d.bk.Managed() {
		// The scheduler substitutes the TaskId itself on managed
		// backends; locally the placeholder is formatted per task.
		envParts = append(envParts, TaskIDEnv+"="+taskIDPlaceholder)
	}
	envParts = append(envParts, d.cfg.EnvironPairs()...)
	envParts = append(envParts, opts.ExtraEnv...)

	parts := make([]string, 0, 8)
	if header := d.bk.RunHeader(array, d.cfg.Nproc); header != "" {
		parts = append(parts, header)
	}
	parts = append(parts,
		d.cfg.RunExec,
		"--funcs", funcsPath,
		"--kwargs", kwargsPath,
		"--environment", strings.Join(envParts, ","),
	)
	return strings.Join(parts, " ")
}

// runManaged hands the whole array to the external scheduler in one
// submission. Fan-out, concurrency and per-task accounting belong to the
// scheduler from that point on; a non-zero exit here means the submission
// itself was rejected.
func (d *Dispatcher) runManaged(ctx context.Context, runCall string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", runCall)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("array submission failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	d.log.Info("array submitted to scheduler",
		zap.String("job_id", strings.TrimSpace(string(out))))
	return nil
}

// runLocal launches tasks as independent OS processes through a worker pool
// of exactly ntask_max goroutines, waits for the array under the tasktime
// ceiling, and aggregates the exit statuses observed within the budget.
// Tasks still running when the budget elapses, and tasks abandoned after a
// launch error, receive best-effort termination through context
// cancellation; their statuses are indeterminate, never successful.
func (d *Dispatcher) runLocal(ctx context.Context, taskIDs []int, runCall string, single bool) (*FailureReport, error) {
	if err := os.MkdirAll(d.cfg.PathLogs, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	deadline := d.cfg.TasktimeDuration()
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	if single {
		res, lerr := d.runTask(runCtx, runCall, 0)
		if lerr != nil {
			return nil, lerr
		}
		d.recordResult(res)
		return Aggregate(taskIDs, []DispatchResult{res}, runCall), nil
	}

	workers := d.cfg.NtaskMax
	if workers > len(taskIDs) {
		workers = len(taskIDs)
	}

	ids := make(chan int, len(taskIDs))
	for _, id := range taskIDs {
		ids <- id
	}
	close(ids)

	type taskOutcome struct {
		res  DispatchResult
		lerr *LaunchError
	}
	outcomes := make(chan taskOutcome, len(taskIDs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				select {
				case <-runCtx.Done():
					return
				default:
				}
				res, lerr := d.runTask(runCtx, runCall, id)
				outcomes <- taskOutcome{res: res, lerr: lerr}
			}
		}()
	}

	hist := hdrhistogram.New(1, int64(time.Hour/time.Millisecond), 3)

	var results []DispatchResult
	var firstLaunchErr *LaunchError

collect:
	for range taskIDs {
		select {
		case out := <-outcomes:
			if out.lerr != nil {
				// First launch error short-circuits the wait;
				// outcomes of still-running tasks are no longer
				// needed.
				firstLaunchErr = out.lerr
				break collect
			}
			d.recordResult(out.res)
			results = append(results, out.res)
			ms := out.res.Elapsed.Milliseconds()
			if ms < 1 {
				ms = 1
			}
			_ = hist.RecordValue(ms)
		case <-runCtx.Done():
			d.log.Warn("array wait reached the tasktime ceiling",
				zap.Duration("tasktime", deadline),
				zap.Int("collected", len(results)),
				zap.Int("requested", len(taskIDs)))
			break collect
		}
	}

	cancel()
	go func() {
		// Reap the workers off the waiting path; the cancelled context
		// unblocks them promptly.
		wg.Wait()
		close(outcomes)
	}()

	if firstLaunchErr != nil {
		return nil, firstLaunchErr
	}

	d.log.Debug("task wall time (ms)",
		zap.Int64("p50", hist.ValueAtQuantile(50)),
		zap.Int64("p95", hist.ValueAtQuantile(95)),
		zap.Int64("max", hist.Max()))

	return Aggregate(taskIDs, results, runCall), nil
}

// runTask starts one task process with its stdout and stderr redirected to
// the per-TaskId log file, and blocks until the process leaves the running
// state or the array context is cancelled.
func (d *Dispatcher) runTask(ctx context.Context, runCall string, taskID int) (DispatchResult, *LaunchError) {
	cmdStr := strings.ReplaceAll(runCall, taskIDPlaceholder, strconv.Itoa(taskID))
	res := DispatchResult{TaskID: taskID, Status: StatusIndeterminate, Command: cmdStr}

	logFile, err := os.Create(filepath.Join(d.cfg.PathLogs, strconv.Itoa(taskID)))
	if err != nil {
		return res, &LaunchError{TaskID: taskID, Err: err}
	}
	defer logFile.Close()

	d.log.Debug("running task", zap.Int("task_id", taskID))

	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return res, &LaunchError{TaskID: taskID, Err: err}
	}

	d.taskStarted()
	started := time.Now()
	err = cmd.Wait()
	res.Elapsed = time.Since(started)
	d.taskFinished()

	if err == nil {
		res.Status = 0
		return res, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
		res.Status = exitErr.ExitCode()
		return res, nil
	}
	// Killed by the tasktime ceiling or another cancellation; the outcome
	// stays indeterminate.
	return res, nil
}
