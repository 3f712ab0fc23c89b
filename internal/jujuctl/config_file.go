package jujuctl

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeploymentOptions are the charm options written to the deploy config file.
type DeploymentOptions struct {
	ServeTests   bool   `yaml:"serve-tests"`
	Staging      bool   `yaml:"staging"`
	SourceBranch string `yaml:"juju-gui-source,omitempty"`
}

// NewDeploymentOptions returns the options used for a test deployment.
// An empty branch deploys the charm's default source.
func NewDeploymentOptions(branch string) DeploymentOptions {
	return DeploymentOptions{
		ServeTests:   true,
		Staging:      true,
		SourceBranch: branch,
	}
}

// ConfigFile is a temporary charm config file. Close removes it.
type ConfigFile struct {
	path   string
	closed bool
}

// BuildConfigFile writes {serviceName: opts} as YAML to a fresh temp file.
// The caller must Close the returned file once juju has read it.
func BuildConfigFile(opts DeploymentOptions, serviceName string) (*ConfigFile, error) {
	data, err := yaml.Marshal(map[string]DeploymentOptions{serviceName: opts})
	if err != nil {
		return nil, &ConfigWriteError{Err: fmt.Errorf("marshal: %w", err)}
	}

	f, err := os.CreateTemp("", "charm-config-*.yaml")
	if err != nil {
		return nil, &ConfigWriteError{Err: fmt.Errorf("create temp file: %w", err)}
	}

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, &ConfigWriteError{Err: fmt.Errorf("write %s: %w", f.Name(), err)}
	}

	return &ConfigFile{path: f.Name()}, nil
}

// Path returns the location of the config file on disk.
func (c *ConfigFile) Path() string {
	return c.path
}

// Close deletes the config file. It is safe to call more than once.
func (c *ConfigFile) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove charm config %s: %w", c.path, err)
	}
	return nil
}
