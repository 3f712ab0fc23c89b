package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/charmdeploy/internal/jujuctl"
)

// DeployMetrics records one deployment run. It implements jujuctl.Recorder.
type DeployMetrics struct {
	registry *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	polls        *prometheus.CounterVec
	lastSuccess  prometheus.Gauge
	lastRun      prometheus.Gauge
	runInfo      *prometheus.GaugeVec
}

// NewDeployMetrics creates the run metrics on a private registry so that
// the textfile contains only charmdeploy series.
func NewDeployMetrics(runID, environment string) *DeployMetrics {
	m := &DeployMetrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "charmdeploy_step_duration_seconds",
			Help:    "Duration of each deployment step",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"step", "result"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charmdeploy_status_polls_total",
			Help: "Number of juju status polls by classified unit state",
		}, []string{"state"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charmdeploy_last_run_success",
			Help: "1 if the last deployment run succeeded, 0 otherwise",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "charmdeploy_last_run_timestamp_seconds",
			Help: "Unix time the last deployment run finished",
		}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "charmdeploy_run_info",
			Help: "Identifies the last deployment run",
		}, []string{"run_id", "environment"}),
	}

	m.registry.MustRegister(m.stepDuration, m.polls, m.lastSuccess, m.lastRun, m.runInfo)
	m.runInfo.WithLabelValues(runID, environment).Set(1)
	return m
}

func (m *DeployMetrics) StepDone(step string, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.stepDuration.WithLabelValues(step, result).Observe(took.Seconds())
}

func (m *DeployMetrics) Polled(state jujuctl.LifecycleState) {
	m.polls.WithLabelValues(state.String()).Inc()
}

// Finish records the outcome of the run.
func (m *DeployMetrics) Finish(err error, now time.Time) {
	if err == nil {
		m.lastSuccess.Set(1)
	} else {
		m.lastSuccess.Set(0)
	}
	m.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes all series in the Prometheus text format for the
// node-exporter textfile collector. The file is replaced atomically.
func (m *DeployMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

