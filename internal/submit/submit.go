// Package submit builds and runs the one-shot command that starts the
// master workflow job on the compute resource.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"geoflow/array-engine/internal/backend"
	"geoflow/array-engine/internal/config"
)

var (
	// ErrSubmitFailed is returned when the OS-level submission command
	// exits non-zero. Fatal at the top level; there is no retry.
	ErrSubmitFailed = errors.New("master job submission failed")

	// ErrMissingSubmitExec is returned when no workflow entry point is
	// configured.
	ErrMissingSubmitExec = errors.New("system.submit_exec is not configured")
)

// Submitter hands the master workflow job to the OS, wrapped in the
// backend's submit header unless the operator asks for a direct login-node
// run.
type Submitter struct {
	cfg *config.SystemConfig
	bk  backend.Backend
	log *zap.Logger
}

// New creates a submitter. The backend must already be validated.
func New(cfg *config.SystemConfig, bk backend.Backend, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{cfg: cfg, bk: bk, log: log}
}

// Submit submits the master workflow job. With login=true the batch header
// is bypassed and the workflow entry point runs in the calling execution
// context, which avoids queue time but puts array bookkeeping on the shared
// login node. Pre-existing log and parameter files are copied aside first so
// a new run does not silently overwrite them.
func (s *Submitter) Submit(ctx context.Context, workdir, parameterFile string, login bool) error {
	if s.cfg.SubmitExec == "" {
		return ErrMissingSubmitExec
	}

	s.backupPriorRun(parameterFile)

	header := s.bk.SubmitHeader()
	if login {
		header = ""
		s.log.Info("submitting master job on login node")
	}

	parts := make([]string, 0, 4)
	if header != "" {
		parts = append(parts, header)
	}
	parts = append(parts,
		s.cfg.SubmitExec,
		fmt.Sprintf("--workdir %s", workdir),
		fmt.Sprintf("--parameter_file %s", parameterFile),
	)
	submitCall := strings.Join(parts, " ")
	s.log.Debug("submit call", zap.String("cmd", submitCall))

	cmd := exec.CommandContext(ctx, "sh", "-c", submitCall)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	return nil
}

// backupPriorRun copies the previous run's output log and parameter file
// into the logs directory, suffixed with a timestamp.
func (s *Submitter) backupPriorRun(parameterFile string) {
	if _, err := os.Stat(s.cfg.PathLogs); err != nil {
		return
	}
	stamp := time.Now().Format("20060102-150405")
	for _, src := range []string{s.cfg.PathOutputLog, parameterFile} {
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(s.cfg.PathLogs, filepath.Base(src)+"."+stamp)
		if err := copyFile(src, dst); err != nil {
			s.log.Warn("could not back up prior run file",
				zap.String("src", src), zap.Error(err))
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
