package jujuctl

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// ExternalCommandError is returned when the juju binary exits non-zero or
// cannot be started at all (ExitCode -1).
type ExternalCommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalCommandError) Error() string {
	cmd := shellescape.QuoteCommand(e.Args)
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.ExitCode < 0:
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	case stderr != "":
		return fmt.Sprintf("%s: exit status %d: %s", cmd, e.ExitCode, stderr)
	default:
		return fmt.Sprintf("%s: exit status %d", cmd, e.ExitCode)
	}
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// ConfigWriteError is returned when the charm config file cannot be
// serialized or written.
type ConfigWriteError struct {
	Err error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("write charm config: %v", e.Err)
}

func (e *ConfigWriteError) Unwrap() error { return e.Err }

// StatusParseError is returned when juju status output is not valid JSON.
type StatusParseError struct {
	Output string
}

func (e *StatusParseError) Error() string {
	out := e.Output
	if len(out) > 200 {
		out = out[:200] + "..."
	}
	return fmt.Sprintf("parse status output: malformed JSON: %q", out)
}

// UnitNotFoundError is returned when the status document has no agent-state
// for the requested unit.
type UnitNotFoundError struct {
	Service string
	Unit    string
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit %s of service %s not found in status", e.Unit, e.Service)
}

// DeploymentFailedError is returned when the unit reports an error state.
type DeploymentFailedError struct {
	State string
}

func (e *DeploymentFailedError) Error() string {
	return fmt.Sprintf("error deploying service: agent-state %q", e.State)
}
