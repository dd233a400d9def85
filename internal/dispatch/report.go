package dispatch

import (
	"fmt"
	"sort"
	"time"
)

// DispatchResult is the terminal outcome of one array member.
type DispatchResult struct {
	// TaskID is the dense array index of the task.
	TaskID int

	// Status is the process exit status. StatusIndeterminate marks a task
	// whose outcome never arrived within the array's wait budget.
	Status int

	// Command is the literal command handed to the OS shell.
	Command string

	// Elapsed is the task process wall time.
	Elapsed time.Duration
}

// StatusIndeterminate marks a task that timed out or was never observed to
// terminate. Never spuriously successful.
const StatusIndeterminate = -1

// LaunchError reports a task process that could not be started at all. The
// first one observed short-circuits the remainder of the array wait.
type LaunchError struct {
	TaskID int
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("task %d could not be launched: %v", e.TaskID, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// FailureReport names every TaskId of an array that failed, plus the run
// command template, so the operator can inspect the matching log files. It
// is produced only when at least one task failed.
type FailureReport struct {
	TaskIDs []int
	RunCall string
}

func (r *FailureReport) Error() string {
	return fmt.Sprintf(
		"run call returned non-zero exit codes for task ids %v; "+
			"check the corresponding log files (run call: %s)",
		r.TaskIDs, r.RunCall)
}

// Aggregate folds the collected results for the requested TaskId set into a
// single outcome: nil when every requested task reported a zero exit status,
// otherwise a report naming every failed task. Requested tasks with no
// result are failed, not silently dropped. Pure and deterministic; no retry,
// no partial-success continuation.
func Aggregate(requested []int, results []DispatchResult, runCall string) *FailureReport {
	seen := make(map[int]int, len(results))
	for _, res := range results {
		seen[res.TaskID] = res.Status
	}

	var failed []int
	for _, id := range requested {
		status, ok := seen[id]
		if !ok || status != 0 {
			failed = append(failed, id)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	sort.Ints(failed)
	return &FailureReport{TaskIDs: failed, RunCall: runCall}
}

// TaskIDs returns the dense TaskId set for a dispatch: {0} for a single
// task, {0..ntask-1} for an array.
func TaskIDs(ntask int, single bool) []int {
	if single || ntask < 1 {
		return []int{0}
	}
	ids := make([]int, ntask)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
