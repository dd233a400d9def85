package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.System.System = "workstation"
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(wd), cfg.System.Title)

	wantMax := runtime.NumCPU() - 1
	if wantMax < 1 {
		wantMax = 1
	}
	assert.Equal(t, wantMax, cfg.System.NtaskMax)

	assert.Equal(t, 1, cfg.System.Ntask)
	assert.Equal(t, 1, cfg.System.Nproc)
	assert.Equal(t, float64(10), cfg.System.Walltime)
	assert.Equal(t, float64(1), cfg.System.Tasktime)
	assert.Equal(t, "scratch", cfg.System.PathScratch)
	assert.Equal(t, "logs", cfg.System.PathLogs)
	assert.Equal(t, "output.log", cfg.System.PathOutputLog)
	assert.NotEmpty(t, cfg.System.RunExec)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDefaultsDoNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.System.System = "workstation"
	cfg.System.Title = "inversion_01"
	cfg.System.NtaskMax = 5
	cfg.System.Tasktime = 2.5
	cfg.ApplyDefaults()

	assert.Equal(t, "inversion_01", cfg.System.Title)
	assert.Equal(t, 5, cfg.System.NtaskMax)
	assert.Equal(t, 2.5, cfg.System.Tasktime)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parameters.yaml")
	data := `
system:
  system: slurm
  title: run1
  mpiexec: srun
  ntask: 25
  ntask_max: 10
  walltime: 120
  tasktime: 15
  partition: compute
  environs: OMP_NUM_THREADS=4,SCRATCH=/tmp
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "slurm", cfg.System.System)
	assert.Equal(t, "run1", cfg.System.Title)
	assert.Equal(t, "srun", cfg.System.MPIExec)
	assert.Equal(t, 25, cfg.System.Ntask)
	assert.Equal(t, 10, cfg.System.NtaskMax)
	assert.Equal(t, "compute", cfg.System.Partition)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"OMP_NUM_THREADS=4", "SCRATCH=/tmp"}, cfg.System.EnvironPairs())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parameters.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvironPairsEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.System.Environs = "  "
	assert.Nil(t, cfg.System.EnvironPairs())
}

func TestDurations(t *testing.T) {
	cfg := validConfig()
	cfg.System.Walltime = 1.5
	cfg.System.Tasktime = 0.25

	assert.Equal(t, 90*time.Second, cfg.System.WalltimeDuration())
	assert.Equal(t, 15*time.Second, cfg.System.TasktimeDuration())
}
