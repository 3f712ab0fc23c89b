package jujuctl

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusQuery reads the agent-state of one unit from `juju status`.
type StatusQuery struct {
	Runner      Runner
	Environment string
	Service     string
	Unit        string
}

// Fetch runs `juju status` and returns the unit's agent-state.
func (q *StatusQuery) Fetch(ctx context.Context) (string, error) {
	out, err := q.Runner.Run(ctx, "status", "--environment", q.Environment, "--format", "json")
	if err != nil {
		return "", err
	}
	return agentState(out, q.Service, q.Unit)
}

func agentState(output, service, unit string) (string, error) {
	if !gjson.Valid(output) {
		return "", &StatusParseError{Output: output}
	}

	path := strings.Join([]string{
		"services", escapePathKey(service), "units", escapePathKey(unit), "agent-state",
	}, ".")
	res := gjson.Get(output, path)
	if !res.Exists() || res.Type != gjson.String {
		return "", &UnitNotFoundError{Service: service, Unit: unit}
	}
	return res.Str, nil
}

// escapePathKey makes a map key safe to use as one gjson path component.
func escapePathKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
