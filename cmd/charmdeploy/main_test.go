package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/edvin/charmdeploy/internal/jujuctl"
)

// fakeJuju writes a shell script standing in for juju. Every invocation is
// appended to calls.log; deploy copies its config file to config.copy; status
// prints the given agent-state for juju-gui/0.
func fakeJuju(t *testing.T, agentState string) (binary, dir string) {
	t.Helper()
	dir = t.TempDir()
	script := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %[1]s/calls.log
case "$1" in
deploy)
	while [ $# -gt 0 ]; do
		if [ "$1" = "--config" ]; then cat "$2" > %[1]s/config.copy; echo "$2" > %[1]s/config.path; fi
		shift
	done
	;;
status)
	echo '{"services": {"juju-gui": {"units": {"juju-gui/0": {"agent-state": "%[2]s"}}}}}'
	;;
esac
`, dir, agentState)
	binary = filepath.Join(dir, "juju")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0755))
	return binary, dir
}

func readCalls(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRun_DefaultSource(t *testing.T) {
	binary, dir := fakeJuju(t, "started")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-juju", binary, "-interval", "10ms"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	calls := readCalls(t, dir)
	require.Len(t, calls, 4)
	assert.Equal(t, "bootstrap --environment juju-gui-testing", calls[0])
	assert.True(t, strings.HasPrefix(calls[1], "deploy --environment juju-gui-testing --config "))
	assert.True(t, strings.HasSuffix(calls[1], " cs:~juju-gui/precise/juju-gui"))
	assert.Equal(t, "status --environment juju-gui-testing --format json", calls[2])
	assert.Equal(t, "expose juju-gui --environment juju-gui-testing", calls[3])

	assert.Equal(t, "Bootstrapping...\nDeploying service...\nWaiting for service to start...\nExposing the service...\n", stdout.String())

	path, err := os.ReadFile(filepath.Join(dir, "config.path"))
	require.NoError(t, err)
	_, err = os.Stat(strings.TrimSpace(string(path)))
	assert.True(t, os.IsNotExist(err), "config file should be removed")
}

func TestRun_Branch(t *testing.T) {
	binary, dir := fakeJuju(t, "started")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-juju", binary, "lp:~user/juju-gui/feature"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	data, err := os.ReadFile(filepath.Join(dir, "config.copy"))
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "lp:~user/juju-gui/feature", doc["juju-gui"]["juju-gui-source"])
	assert.Contains(t, stdout.String(), "Setting branch for charm to deploy...")
}

func TestRun_ErrorState(t *testing.T) {
	binary, dir := fakeJuju(t, "error: machine unreachable")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-juju", binary}, &stdout, &stderr)
	var failed *jujuctl.DeploymentFailedError
	require.ErrorAs(t, err, &failed)

	for _, c := range readCalls(t, dir) {
		assert.False(t, strings.HasPrefix(c, "expose"), "expose must not run")
	}
	assert.NotContains(t, stdout.String(), "Exposing")
}

func TestRun_MetricsFile(t *testing.T) {
	binary, dir := fakeJuju(t, "started")
	metricsPath := filepath.Join(dir, "charmdeploy.prom")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-juju", binary, "-metrics-file", metricsPath}, &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "charmdeploy_last_run_success 1")
	assert.Contains(t, string(data), `charmdeploy_status_polls_total{state="ready"} 1`)
}

func TestRun_TooManyArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"lp:a", "lp:b"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "at most one branch")
}

func TestRun_MissingBinary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-juju", filepath.Join(t.TempDir(), "juju")}, &stdout, &stderr)

	var cmdErr *jujuctl.ExternalCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Bootstrapping...\n", stdout.String())
}
