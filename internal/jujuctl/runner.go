package jujuctl

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Runner executes one juju subcommand and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner implements Runner by spawning a local binary.
type ExecRunner struct {
	binary string
	logger zerolog.Logger
}

// NewExecRunner binds a Runner to the given binary (usually "juju").
func NewExecRunner(binary string, logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		binary: binary,
		logger: logger.With().Str("binary", binary).Logger(),
	}
}

// Run starts the binary with args, waits for it to exit and returns stdout.
// Stdin is not attached. A non-zero exit or a failure to start yields an
// *ExternalCommandError.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{r.binary}, args...)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug().
		Str("cmd", shellescape.QuoteCommand(argv)).
		Dur("took", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("juju command finished")

	if err == nil {
		return stdout.String(), nil
	}

	cmdErr := &ExternalCommandError{Args: argv, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		cmdErr.Err = ctx.Err()
	case errors.As(err, &exitErr):
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return stdout.String(), cmdErr
}
