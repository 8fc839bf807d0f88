package wizard

import (
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Config holds the behavioural switches of a session.
type Config struct {
	// Formatting controls how stored payment values are shown back.
	Formatting validation.Formatting `json:"display_formatting" yaml:"display_formatting"`
	// StrictLocation requires country and city to come from the lookup lists.
	StrictLocation bool `json:"strict_location" yaml:"strict_location"`
	// ResetOnConfirm restores the default record after confirmation.
	ResetOnConfirm bool `json:"reset_on_confirm" yaml:"reset_on_confirm"`
}

// Observer receives wizard events, typically to feed metrics.
type Observer interface {
	StepSubmitted(step steps.ID, accepted bool)
	LookupFailed(query string)
	Confirmed()
}

type nopObserver struct{}

func (nopObserver) StepSubmitted(steps.ID, bool) {}
func (nopObserver) LookupFailed(string)          {}
func (nopObserver) Confirmed()                   {}

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the session configuration.
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithLookup sets the reference-data source for the location step.
func WithLookup(source lookup.Collaborator) Option {
	return func(s *Session) {
		if source != nil {
			s.lookup = source
		}
	}
}

// WithSink sets where confirmed records go.
func WithSink(sink summary.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithDirectory overrides the step directory.
func WithDirectory(dir *steps.Directory) Option {
	return func(s *Session) {
		if dir != nil {
			s.dir = dir
		}
	}
}
