package jujuctl

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the delay between status polls while a unit is pending.
const DefaultPollInterval = 10 * time.Second

// LifecycleState classifies a unit's agent-state.
type LifecycleState int

const (
	StatePending LifecycleState = iota
	StateError
	StateReady
)

func (s LifecycleState) String() string {
	switch s {
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return "pending"
	}
}

// Classify maps an agent-state string to a LifecycleState. Any state
// containing "error" is an error, even if it also looks started.
func Classify(state string) LifecycleState {
	switch {
	case strings.Contains(state, "error"):
		return StateError
	case state == "started":
		return StateReady
	default:
		return StatePending
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Waiter polls a unit until it is started or reports an error. There is no
// overall timeout; cancel ctx to give up.
type Waiter struct {
	Interval time.Duration
	Sleep    Sleeper
	Recorder Recorder
	Logger   zerolog.Logger
}

// NewWaiter returns a Waiter using the real clock.
func NewWaiter(interval time.Duration, logger zerolog.Logger) *Waiter {
	return &Waiter{
		Interval: interval,
		Sleep:    ContextSleep,
		Logger:   logger,
	}
}

// Wait calls query until it reports a ready or error state. Query errors end
// the wait immediately.
func (w *Waiter) Wait(ctx context.Context, query func(context.Context) (string, error)) error {
	sleep := w.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	rec := w.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	for poll := 1; ; poll++ {
		state, err := query(ctx)
		if err != nil {
			return err
		}

		ls := Classify(state)
		rec.Polled(ls)
		w.Logger.Debug().
			Int("poll", poll).
			Str("agent_state", state).
			Stringer("lifecycle", ls).
			Msg("polled unit state")

		switch ls {
		case StateError:
			return &DeploymentFailedError{State: state}
		case StateReady:
			return nil
		}

		if err := sleep(ctx, w.Interval); err != nil {
			return err
		}
	}
}
