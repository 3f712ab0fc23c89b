package jujuctl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for the GUI test deployment.
const (
	DefaultEnvironment = "juju-gui-testing"
	DefaultService     = "juju-gui"
	DefaultUnit        = "juju-gui/0"
	DefaultCharm       = "cs:~juju-gui/precise/juju-gui"
)

// Step names passed to Recorder.StepDone.
const (
	StepBootstrap = "bootstrap"
	StepDeploy    = "deploy"
	StepWait      = "wait"
	StepExpose    = "expose"
)

// Recorder observes a deployment run. Implementations must be cheap; they
// are called inline.
type Recorder interface {
	StepDone(step string, took time.Duration, err error)
	Polled(state LifecycleState)
}

type nopRecorder struct{}

func (nopRecorder) StepDone(string, time.Duration, error) {}
func (nopRecorder) Polled(LifecycleState)                 {}

// Target identifies what gets deployed and where.
type Target struct {
	Environment string
	Service     string
	Unit        string
	Charm       string
}

// DefaultTarget returns the GUI test deployment target.
func DefaultTarget() Target {
	return Target{
		Environment: DefaultEnvironment,
		Service:     DefaultService,
		Unit:        DefaultUnit,
		Charm:       DefaultCharm,
	}
}

// Deployer drives bootstrap, deploy, readiness wait and expose for one
// service.
type Deployer struct {
	runner   Runner
	waiter   *Waiter
	target   Target
	out      io.Writer
	recorder Recorder
	logger   zerolog.Logger
}

// NewDeployer wires a Deployer. Progress lines are written to out.
func NewDeployer(runner Runner, waiter *Waiter, target Target, out io.Writer, logger zerolog.Logger) *Deployer {
	return &Deployer{
		runner:   runner,
		waiter:   waiter,
		target:   target,
		out:      out,
		recorder: nopRecorder{},
		logger:   logger.With().Str("environment", target.Environment).Str("juju_service", target.Service).Logger(),
	}
}

// WithRecorder sets the Recorder for this Deployer and its Waiter.
func (d *Deployer) WithRecorder(r Recorder) *Deployer {
	d.recorder = r
	d.waiter.Recorder = r
	return d
}

// Deploy runs the full lifecycle. An empty branch deploys the charm's default
// source. The first failing step aborts the run; nothing is rolled back.
func (d *Deployer) Deploy(ctx context.Context, branch string) error {
	fmt.Fprintln(d.out, "Bootstrapping...")
	if err := d.step(StepBootstrap, func() error {
		_, err := d.runner.Run(ctx, "bootstrap", "--environment", d.target.Environment)
		return err
	}); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	fmt.Fprintln(d.out, "Deploying service...")
	opts := NewDeploymentOptions(branch)
	if opts.SourceBranch != "" {
		fmt.Fprintln(d.out, "Setting branch for charm to deploy...")
	}
	if err := d.step(StepDeploy, func() error {
		return d.deployCharm(ctx, opts)
	}); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}

	fmt.Fprintln(d.out, "Waiting for service to start...")
	query := &StatusQuery{
		Runner:      d.runner,
		Environment: d.target.Environment,
		Service:     d.target.Service,
		Unit:        d.target.Unit,
	}
	if err := d.step(StepWait, func() error {
		return d.waiter.Wait(ctx, query.Fetch)
	}); err != nil {
		return fmt.Errorf("wait for %s: %w", d.target.Unit, err)
	}

	fmt.Fprintln(d.out, "Exposing the service...")
	if err := d.step(StepExpose, func() error {
		_, err := d.runner.Run(ctx, "expose", d.target.Service, "--environment", d.target.Environment)
		return err
	}); err != nil {
		return fmt.Errorf("expose: %w", err)
	}

	d.logger.Info().Msg("service deployed and exposed")
	return nil
}

// deployCharm owns the config file for exactly the duration of the deploy
// command.
func (d *Deployer) deployCharm(ctx context.Context, opts DeploymentOptions) error {
	cfg, err := BuildConfigFile(opts, d.target.Service)
	if err != nil {
		return err
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			d.logger.Warn().Err(err).Msg("could not remove charm config")
		}
	}()

	d.logger.Debug().Str("config", cfg.Path()).Str("branch", opts.SourceBranch).Msg("deploying charm")
	_, err = d.runner.Run(ctx, "deploy",
		"--environment", d.target.Environment,
		"--config", cfg.Path(),
		d.target.Charm,
	)
	return err
}

func (d *Deployer) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	d.recorder.StepDone(name, took, err)

	d.logger.Debug().Err(err).Str("step", name).Dur("took", took).Msg("step finished")
	return err
}
