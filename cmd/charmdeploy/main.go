package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/edvin/charmdeploy/internal/config"
	"github.com/edvin/charmdeploy/internal/jujuctl"
	"github.com/edvin/charmdeploy/internal/logging"
	"github.com/edvin/charmdeploy/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"juju":         "juju_binary",
	"environment":  "environment",
	"service":      "service",
	"unit":         "unit",
	"charm":        "charm",
	"interval":     "poll_interval",
	"log-level":    "log_level",
	"metrics-file": "metrics_file",
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("charmdeploy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML config file")
	fs.String("juju", "juju", "juju binary to run")
	fs.String("environment", jujuctl.DefaultEnvironment, "Juju environment to bootstrap and deploy into")
	fs.String("service", jujuctl.DefaultService, "Service name to deploy and expose")
	fs.String("unit", jujuctl.DefaultUnit, "Unit whose agent-state gates readiness")
	fs.String("charm", jujuctl.DefaultCharm, "Charm to deploy")
	fs.Duration("interval", jujuctl.DefaultPollInterval, "Delay between status polls")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error, disabled)")
	fs.String("metrics-file", "", "Write run metrics to this node-exporter textfile")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: charmdeploy [flags] [branch]

Bootstrap a Juju environment, deploy the GUI charm, wait for its unit to
start and expose it. The optional branch is passed to the charm as its
source (for example lp:~user/juju-gui/feature).

Flags:`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("expected at most one branch argument, got %d", fs.NArg())
	}
	branch := fs.Arg(0)

	overrides := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.(flag.Getter).Get()
		}
	})

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := logging.NewLogger(stderr, cfg, runID)

	runner := jujuctl.NewExecRunner(cfg.JujuBinary, logger)
	waiter := jujuctl.NewWaiter(cfg.PollInterval, logger)
	deployer := jujuctl.NewDeployer(runner, waiter, cfg.Target(), stdout, logger)

	var m *metrics.DeployMetrics
	if cfg.MetricsFile != "" {
		m = metrics.NewDeployMetrics(runID, cfg.Environment)
		deployer.WithRecorder(m)
	}

	logger.Debug().Str("branch", branch).Str("unit", cfg.Unit).Msg("starting deployment")
	err = deployer.Deploy(ctx, branch)

	if m != nil {
		m.Finish(err, time.Now())
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("could not write metrics")
		}
	}

	if err != nil {
		var failed *jujuctl.DeploymentFailedError
		if errors.As(err, &failed) {
			logger.Error().Str("agent_state", failed.State).Msg("unit entered an error state")
		}
		return err
	}
	return nil
}
