// Package wizard drives the step state machine:
//
//	Personal -> Location -> Payment -> Summary
//	Location -back-> Personal, Payment -back-> Location
//	Summary -edit(section)-> Summary(editing) -submit|close-> Summary
//	Summary -confirm-> Personal
//
// A Session owns one store.Store and is the only writer of it. Only a
// successful submission changes the record, and each one writes the slot
// exactly once.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

var (
	// ErrInvalidTransition is returned for operations the current state does
	// not allow.
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	// ErrStepMismatch is returned when input targets a step that is not active.
	ErrStepMismatch = errors.New("wizard: step is not active")
	// ErrUnknownStep is returned for unknown step or section identifiers.
	ErrUnknownStep = errors.New("wizard: unknown step")
)

// Outcome describes the result of a submission.
type Outcome struct {
	Step     steps.ID          `json:"step"`
	Next     steps.ID          `json:"next"`
	Accepted bool              `json:"accepted"`
	Errors   validation.Errors `json:"errors,omitempty"`
	// Values echoes the raw input on rejection and the normalized input on
	// acceptance.
	Values validation.Values `json:"values,omitempty"`
	Notice string            `json:"notice,omitempty"`
	// PersistErr is set when the record was accepted but the slot write
	// failed. The transition still happened.
	PersistErr error `json:"-"`
}

// Session is one user's pass through the wizard.
type Session struct {
	mu sync.Mutex

	store    *store.Store
	dir      *steps.Directory
	lookup   lookup.Collaborator
	sink     summary.Sink
	cfg      Config
	logger   *slog.Logger
	observer Observer

	state     steps.ID
	editing   model.Section
	selection *lookup.Selection
	notice    string
}

// New starts a session at the first step over st.
func New(st *store.Store, opts ...Option) (*Session, error) {
	if st == nil {
		return nil, errors.New("wizard: store is required")
	}
	s := &Session{
		store:    st,
		dir:      steps.Default(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: nopObserver{},
		cfg:      Config{Formatting: validation.FormattingRaw},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.lookup == nil {
		static, err := lookup.DefaultStatic()
		if err != nil {
			return nil, fmt.Errorf("wizard: default lookup: %w", err)
		}
		s.lookup = static
	}
	if s.sink == nil {
		s.sink = summary.LogSink{Logger: s.logger}
	}
	if s.cfg.Formatting == "" {
		s.cfg.Formatting = validation.FormattingRaw
	}

	s.state = s.dir.First().ID
	s.resetSelectionLocked()
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Directory returns the step directory.
func (s *Session) Directory() *steps.Directory {
	return s.dir
}

// State returns the active step.
func (s *Session) State() steps.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Editing returns the section open for editing, if any.
func (s *Session) Editing() (model.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.editing != ""
}

// Record returns the current record.
func (s *Session) Record() model.FormRecord {
	return s.store.Get()
}

// TakeNotice returns and clears the last success notice.
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice := s.notice
	s.notice = ""
	return notice
}

// Defaults returns the values a step's controls start with: the stored
// section, formatted for display when configured. The location step reflects
// the live selection.
func (s *Session) Defaults(id steps.ID) (validation.Values, error) {
	step, ok := s.dir.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}
	if !step.IsForm() {
		return validation.Values{}, nil
	}
	if step.ID == steps.Location {
		sel := s.currentSelection()
		return validation.Values{
			model.FieldCountry: sel.Country(),
			model.FieldCity:    sel.City(),
		}, nil
	}
	values := validation.Values(s.store.Get().Values(step.Section))
	return s.cfg.Formatting.Apply(values), nil
}

// Submit validates values for step. Input is accepted only for the active
// step, or for the section being edited from the summary.
func (s *Session) Submit(ctx context.Context, id steps.ID, values validation.Values) (Outcome, error) {
	step, ok := s.dir.Get(id)
	if !ok || !step.IsForm() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}

	rule := step.Rule
	if step.ID == steps.Location {
		rule = s.locationRule(ctx, values[model.FieldCountry])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptsLocked(step); err != nil {
		return Outcome{}, err
	}

	result := rule(values)
	s.observer.StepSubmitted(step.ID, result.OK())
	if !result.OK() {
		s.logger.DebugContext(ctx, "step rejected", "step", step.ID, "fields", result.Errors.Fields())
		return Outcome{
			Step:   step.ID,
			Next:   s.state,
			Errors: result.Errors,
			Values: values.Clone(),
		}, nil
	}

	out := Outcome{Step: step.ID, Accepted: true, Values: result.Values, Notice: step.Saved}
	if err := s.store.Update(ctx, func(rec model.FormRecord) model.FormRecord {
		return rec.WithSection(step.Section, result.Values)
	}); err != nil {
		s.logger.WarnContext(ctx, "step accepted but not persisted", "step", step.ID, "error", err)
		out.PersistErr = err
	}

	if step.ID == steps.Location {
		s.selection.SelectCountry(result.Values[model.FieldCountry])
		_ = s.selection.SelectCity(result.Values[model.FieldCity])
	}

	if s.editing != "" {
		s.editing = ""
	} else if next, ok := s.dir.Next(step.ID); ok {
		s.state = next.ID
		if s.state == steps.Location {
			s.resetSelectionLocked()
		}
	}
	out.Next = s.state
	s.notice = step.Saved
	s.logger.InfoContext(ctx, "step accepted", "step", step.ID, "next", s.state)
	return out, nil
}

func (s *Session) acceptsLocked(step steps.Step) error {
	if s.editing != "" {
		if step.Section == s.editing {
			return nil
		}
		return fmt.Errorf("%w: editing %s, got %s", ErrStepMismatch, s.editing, step.ID)
	}
	if step.ID != s.state {
		return fmt.Errorf("%w: active %s, got %s", ErrStepMismatch, s.state, step.ID)
	}
	return nil
}

// locationRule checks the posted city against the cities of the posted
// country whenever the lookup answers, so a city kept from a previously
// selected country is never stored. StrictLocation also checks the country.
func (s *Session) locationRule(ctx context.Context, country string) validation.Rule {
	var opts []validation.LocationOption
	if s.cfg.StrictLocation {
		if countries, err := s.lookup.ListCountries(ctx); err == nil {
			opts = append(opts, validation.WithCountries(lookup.CountryCodes(countries)))
		} else {
			s.lookupFailed(ctx, "countries", err)
		}
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country != "" {
		if cities, err := s.lookup.ListCities(ctx, country); err == nil {
			opts = append(opts, validation.WithCities(cities))
		} else if !errors.Is(err, lookup.ErrUnknownCountry) {
			s.lookupFailed(ctx, "cities", err)
		}
	}
	return validation.LocationRule(opts...)
}

// Back returns from Location to Personal or from Payment to Location.
func (s *Session) Back() (steps.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing != "" || s.state == steps.Summary {
		return s.state, fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.state)
	}
	prev, ok := s.dir.Prev(s.state)
	if !ok {
		return s.state, fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.state)
	}
	s.state = prev.ID
	// Unsaved location choices are discarded.
	s.resetSelectionLocked()
	return s.state, nil
}

// Edit opens section for in-place editing from the summary. Opening another
// section discards the unsaved edits of the current one.
func (s *Session) Edit(section model.Section) error {
	if _, ok := s.dir.ForSection(section); !ok {
		return fmt.Errorf("%w: section %q", ErrUnknownStep, section)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != steps.Summary {
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, s.state)
	}
	s.editing = section
	s.resetSelectionLocked()
	return nil
}

// CloseEdit leaves edit mode without saving.
func (s *Session) CloseEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == "" {
		return fmt.Errorf("%w: no section is being edited", ErrInvalidTransition)
	}
	s.editing = ""
	s.resetSelectionLocked()
	return nil
}

// Confirm emits the record to the sink and returns to the first step. The
// record is reset beforehand only when ResetOnConfirm is set. A sink failure
// leaves the session on the summary.
func (s *Session) Confirm(ctx context.Context) (model.FormRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != steps.Summary || s.editing != "" {
		return model.FormRecord{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.state)
	}

	rec := s.store.Get()
	if err := s.sink.Submit(ctx, rec); err != nil {
		return rec, fmt.Errorf("wizard: submit record: %w", err)
	}
	s.observer.Confirmed()

	if s.cfg.ResetOnConfirm {
		if err := s.store.Reset(ctx); err != nil {
			s.logger.WarnContext(ctx, "record reset not persisted", "error", err)
		}
	}
	s.resetSelectionLocked()
	s.state = s.dir.First().ID
	s.notice = s.dir.MustGet(steps.Summary).Saved
	s.logger.InfoContext(ctx, "wizard confirmed", "reset", s.cfg.ResetOnConfirm)
	return rec, nil
}

// Discard deletes the slot and restarts at the first step.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.state = s.dir.First().ID
	s.editing = ""
	s.notice = ""
	s.resetSelectionLocked()
	return nil
}

// Summary assembles the review of the current record.
func (s *Session) Summary(ctx context.Context) summary.View {
	editing, _ := s.Editing()
	opts := []summary.Option{
		summary.WithFormatting(s.cfg.Formatting),
		summary.WithEditing(editing),
	}
	if countries, err := s.lookup.ListCountries(ctx); err == nil {
		opts = append(opts, summary.WithCountryNames(lookup.CountryNames(countries)))
	}
	return summary.Assemble(s.store.Get(), opts...)
}

func (s *Session) resetSelectionLocked() {
	rec := s.store.Get()
	s.selection = lookup.NewSelection(rec.Location.Country, rec.Location.City)
}

func (s *Session) currentSelection() *lookup.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

func (s *Session) lookupFailed(ctx context.Context, query string, err error) {
	s.observer.LookupFailed(query)
	s.logger.WarnContext(ctx, "lookup failed", "query", query, "error", err)
}
