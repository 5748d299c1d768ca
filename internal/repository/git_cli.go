package repository

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/compozy/releasesync/internal/domain"
)

// commandRunner runs git subcommands in a working tree.
type commandRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

type execRunner struct {
	binary string
}

func newExecRunner() *execRunner {
	return &execRunner{binary: "git"}
}

// Run returns stdout, or a *domain.GitOperationError carrying stderr and the exit code.
func (r *execRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return stdout.String(), &domain.GitOperationError{
			Command:  args,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return stdout.String(), nil
}
