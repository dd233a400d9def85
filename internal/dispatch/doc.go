// Package dispatch turns a serialized work unit into a job array: one task
// per TaskId, launched as independent OS processes through a bounded worker
// pool (local backends) or handed to the external scheduler in one
// submission (managed backends), with per-task exit statuses aggregated into
// a single pass/fail verdict.
package dispatch
