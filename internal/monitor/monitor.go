// Package monitor implements a stability-gated state machine over a stream of
// tracked-subject observations. It decides when a subject has been present
// long enough to act on and reports that exactly once per streak.
package monitor

import (
	"github.com/pkg/errors"
)

// DefaultStabilityThreshold is the number of consecutive updates used by DefaultConfig.
const DefaultStabilityThreshold = 15

// ErrInvalidThreshold is returned by New when the stability threshold is not positive.
var ErrInvalidThreshold = errors.New("stability threshold must be positive")

// StalePolicy selects how an update for a non-current subject is handled.
type StalePolicy uint8

const (
	// IgnoreStale drops updates whose subject is not the current one.
	IgnoreStale StalePolicy = iota
	// ReassignOnStale treats such an update as a switch to the new subject.
	ReassignOnStale
)

// Config holds the monitor tuning options.
type Config struct {
	// StabilityThreshold is the number of consecutive updates after the
	// initial appearance required before a notification fires.
	StabilityThreshold int
	// RefireOnNewStreak allows every new streak to fire. When false the
	// monitor fires at most once over its lifetime.
	RefireOnNewStreak bool
	// StaleUpdates selects the handling of updates for other subjects.
	StaleUpdates StalePolicy
}

// DefaultConfig returns the configuration used by the front camera profile.
func DefaultConfig() Config {
	return Config{
		StabilityThreshold: DefaultStabilityThreshold,
		RefireOnNewStreak:  true,
		StaleUpdates:       IgnoreStale,
	}
}

// Validate reports whether the configuration can build a Monitor.
func (c Config) Validate() error {
	if c.StabilityThreshold <= 0 {
		return errors.Wrapf(ErrInvalidThreshold, "got %d", c.StabilityThreshold)
	}
	if c.StaleUpdates != IgnoreStale && c.StaleUpdates != ReassignOnStale {
		return errors.Errorf("unknown stale update policy %d", c.StaleUpdates)
	}
	return nil
}

// State is a point-in-time snapshot of a Monitor.
type State[S comparable] struct {
	Subject    S
	HasSubject bool
	Count      int
	Fired      bool
}

// Monitor watches observations for a single focused subject.
// It is not safe for concurrent use; callers deliver observations from one
// goroutine or serialize access themselves.
type Monitor[S comparable] struct {
	cfg Config

	subject    S
	hasSubject bool
	count      int
	fired      bool
	// firedEver latches the first notification when RefireOnNewStreak is off.
	firedEver bool
}

// New creates a Monitor for one tracking session.
func New[S comparable](cfg Config) (*Monitor[S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid monitor config")
	}
	return &Monitor[S]{cfg: cfg}, nil
}

// Config returns the configuration the monitor was built with.
func (m *Monitor[S]) Config() Config {
	return m.cfg
}

// Observe applies one observation and returns a notification when the
// current subject's streak first reaches the stability threshold.
func (m *Monitor[S]) Observe(obs Observation[S]) (Notification[S], bool) {
	switch obs.Kind {
	case KindAppeared:
		m.reassign(obs.Subject)

	case KindUpdated:
		if !m.hasSubject {
			// Nothing to attribute the update to until the tracker announces a subject.
			return Notification[S]{}, false
		}
		if obs.Subject != m.subject {
			if m.cfg.StaleUpdates == ReassignOnStale {
				m.reassign(obs.Subject)
			}
			return Notification[S]{}, false
		}
		m.count++
		if m.count >= m.cfg.StabilityThreshold && !m.fired {
			if !m.cfg.RefireOnNewStreak && m.firedEver {
				return Notification[S]{}, false
			}
			m.fired = true
			m.firedEver = true
			return Notification[S]{Subject: m.subject, Streak: m.count}, true
		}

	case KindLost:
		// The subject stays known so updates resume counting from zero.
		m.resetStreak()

	case KindEnded:
		var zero S
		m.subject = zero
		m.hasSubject = false
		m.resetStreak()
	}

	return Notification[S]{}, false
}

// State returns a snapshot of the monitor.
func (m *Monitor[S]) State() State[S] {
	return State[S]{
		Subject:    m.subject,
		HasSubject: m.hasSubject,
		Count:      m.count,
		Fired:      m.fired,
	}
}

func (m *Monitor[S]) reassign(subject S) {
	m.subject = subject
	m.hasSubject = true
	m.resetStreak()
}

func (m *Monitor[S]) resetStreak() {
	m.count = 0
	m.fired = false
}
