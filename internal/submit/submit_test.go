package submit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoflow/array-engine/internal/backend"
	"geoflow/array-engine/internal/config"
)

func testSubmitter(t *testing.T, mutate func(*config.SystemConfig)) (*Submitter, *config.SystemConfig, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.SystemConfig{
		System:        "workstation",
		Title:         "test_run",
		Ntask:         1,
		NtaskMax:      1,
		Nproc:         1,
		Walltime:      10,
		Tasktime:      1,
		PathScratch:   filepath.Join(dir, "scratch"),
		PathLogs:      filepath.Join(dir, "logs"),
		PathOutputLog: filepath.Join(dir, "output.log"),
		SubmitExec:    "true",
	}
	if mutate != nil {
		mutate(cfg)
	}

	bk, err := backend.New(cfg)
	require.NoError(t, err)

	return New(cfg, bk, nil), cfg, dir
}

func TestSubmitSucceeds(t *testing.T) {
	s, _, dir := testSubmitter(t, nil)

	err := s.Submit(context.Background(), dir, "parameters.yaml", false)
	require.NoError(t, err)
}

func TestSubmitFailureIsFatal(t *testing.T) {
	s, _, dir := testSubmitter(t, func(c *config.SystemConfig) {
		c.SubmitExec = "false"
	})

	err := s.Submit(context.Background(), dir, "parameters.yaml", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmitFailed)
}

func TestSubmitRequiresEntryPoint(t *testing.T) {
	s, _, dir := testSubmitter(t, func(c *config.SystemConfig) {
		c.SubmitExec = ""
	})

	err := s.Submit(context.Background(), dir, "parameters.yaml", false)
	assert.ErrorIs(t, err, ErrMissingSubmitExec)
}

func TestSubmitWrapsWithBatchHeader(t *testing.T) {
	binDir := t.TempDir()
	script := "#!/bin/sh\necho \"$@\" > \"$SUBMIT_CAPTURE\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "sbatch"), []byte(script), 0o755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	capture := filepath.Join(binDir, "capture.txt")
	t.Setenv("SUBMIT_CAPTURE", capture)

	s, _, dir := testSubmitter(t, func(c *config.SystemConfig) {
		c.System = "slurm"
		c.Partition = "compute"
		c.SubmitExec = "engine-workflow"
	})

	err := s.Submit(context.Background(), dir, "parameters.yaml", false)
	require.NoError(t, err)

	out, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Contains(t, string(out), "--job-name=test_run")
	assert.Contains(t, string(out), "engine-workflow")
	assert.Contains(t, string(out), "--workdir "+dir)
	assert.Contains(t, string(out), "--parameter_file parameters.yaml")
}

func TestSubmitLoginBypassesHeader(t *testing.T) {
	// With the header in place this submit call would need a working sbatch
	// on PATH; login mode must run the entry point directly instead.
	s, _, dir := testSubmitter(t, func(c *config.SystemConfig) {
		c.System = "slurm"
		c.Partition = "compute"
		c.SubmitExec = "true"
	})

	err := s.Submit(context.Background(), dir, "parameters.yaml", true)
	require.NoError(t, err)
}

func TestSubmitBacksUpPriorRun(t *testing.T) {
	s, cfg, dir := testSubmitter(t, nil)

	require.NoError(t, os.MkdirAll(cfg.PathLogs, 0o755))
	require.NoError(t, os.WriteFile(cfg.PathOutputLog, []byte("old log"), 0o644))
	paramPath := filepath.Join(dir, "parameters.yaml")
	require.NoError(t, os.WriteFile(paramPath, []byte("system:\n  system: workstation\n"), 0o644))

	require.NoError(t, s.Submit(context.Background(), dir, paramPath, false))

	logBackups, err := filepath.Glob(filepath.Join(cfg.PathLogs, "output.log.*"))
	require.NoError(t, err)
	assert.Len(t, logBackups, 1)

	paramBackups, err := filepath.Glob(filepath.Join(cfg.PathLogs, "parameters.yaml.*"))
	require.NoError(t, err)
	assert.Len(t, paramBackups, 1)

	got, err := os.ReadFile(logBackups[0])
	require.NoError(t, err)
	assert.Equal(t, "old log", string(got))
}

func TestSubmitSkipsBackupWithoutLogsDir(t *testing.T) {
	s, cfg, dir := testSubmitter(t, nil)
	require.NoError(t, os.WriteFile(cfg.PathOutputLog, []byte("old log"), 0o644))

	require.NoError(t, s.Submit(context.Background(), dir, "parameters.yaml", false))
	assert.NoDirExists(t, cfg.PathLogs)
}
