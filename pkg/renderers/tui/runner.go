// Package tui drives a wizard session from the terminal with survey prompts.
// Validation stays in the session: the runner only collects values, submits
// them and reports the outcome.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Menu entries.
const (
	ActionNext    = "Next"
	ActionBack    = "Back"
	ActionQuit    = "Quit"
	ActionSubmit  = "Submit"
	ActionSave    = "Save changes"
	ActionDiscard = "Discard changes"
	ActionRetry   = "Retry lookup"
)

// Shown when a lookup answered with an empty list.
const (
	MsgNoCountries = "No countries are available."
	MsgNoCities    = "No cities are available for the selected country."
)

// Runner walks a session through its steps until confirmation.
type Runner struct {
	sess   *wizard.Session
	driver PromptDriver
	out    io.Writer
	theme  Theme
	logger *slog.Logger
}

// New builds a Runner over sess. Without WithPromptDriver it prompts through
// survey on the process terminal.
func New(sess *wizard.Session, opts ...Option) (*Runner, error) {
	if sess == nil {
		return nil, errors.New("tui: session is required")
	}
	r := &Runner{
		sess:   sess,
		out:    os.Stdout,
		theme:  DefaultTheme,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r, nil
}

// Run prompts until the record is confirmed and returns it. Quitting returns
// ErrAborted; the slot keeps whatever was accepted so far.
func (r *Runner) Run(ctx context.Context) (model.FormRecord, error) {
	dir := r.sess.Directory()
	for {
		if err := ctx.Err(); err != nil {
			return model.FormRecord{}, err
		}
		state := r.sess.State()
		if state == steps.Summary {
			rec, done, err := r.review(ctx)
			if err != nil || done {
				return rec, err
			}
			continue
		}
		if err := r.step(ctx, dir.MustGet(state)); err != nil {
			return model.FormRecord{}, err
		}
	}
}

func (r *Runner) step(ctx context.Context, step steps.Step) error {
	if err := r.driver.Info(ctx, step.Title); err != nil {
		return err
	}
	values, err := r.sess.Defaults(step.ID)
	if err != nil {
		return err
	}

	actions := []string{ActionNext}
	if _, ok := r.sess.Directory().Prev(step.ID); ok {
		actions = append(actions, ActionBack)
	}
	actions = append(actions, ActionQuit)

	for {
		var ready bool
		values, ready, err = r.collect(ctx, step, values)
		if err != nil {
			return err
		}
		choice, err := r.choose(ctx, "Continue?", withRetry(actions, ready))
		if err != nil {
			return err
		}
		switch choice {
		case ActionRetry:
			continue
		case ActionBack:
			_, err := r.sess.Back()
			return err
		case ActionQuit:
			return ErrAborted
		}

		out, err := r.sess.Submit(ctx, step.ID, values)
		if err != nil {
			return err
		}
		if r.report(ctx, step, out) {
			return nil
		}
		values = out.Values
	}
}

func (r *Runner) review(ctx context.Context) (model.FormRecord, bool, error) {
	view := r.sess.Summary(ctx)
	if err := r.driver.Info(ctx, summary.RenderText(view)); err != nil {
		return model.FormRecord{}, false, err
	}

	actions := []string{ActionSubmit}
	for _, section := range view.Sections {
		actions = append(actions, "Edit "+section.Title)
	}
	actions = append(actions, ActionQuit)

	idx, err := r.chooseIndex(ctx, "Review your information", actions)
	if err != nil {
		return model.FormRecord{}, false, err
	}
	switch {
	case actions[idx] == ActionSubmit:
		rec, err := r.sess.Confirm(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "confirmation failed", "error", err)
			r.say(ctx, r.theme.ErrorPrefix, err.Error())
			return model.FormRecord{}, false, nil
		}
		r.say(ctx, r.theme.InfoPrefix, r.sess.TakeNotice())
		return rec, true, nil
	case actions[idx] == ActionQuit:
		return model.FormRecord{}, false, ErrAborted
	default:
		return model.FormRecord{}, false, r.edit(ctx, view.Sections[idx-1].ID)
	}
}

func (r *Runner) edit(ctx context.Context, section model.Section) error {
	step, ok := r.sess.Directory().ForSection(section)
	if !ok {
		return fmt.Errorf("tui: no step for section %q", section)
	}
	if err := r.sess.Edit(section); err != nil {
		return err
	}
	values, err := r.sess.Defaults(step.ID)
	if err != nil {
		return err
	}

	for {
		var ready bool
		values, ready, err = r.collect(ctx, step, values)
		if err != nil {
			return err
		}
		choice, err := r.choose(ctx, step.Title, withRetry([]string{ActionSave, ActionDiscard}, ready))
		if err != nil {
			return err
		}
		switch choice {
		case ActionRetry:
			continue
		case ActionDiscard:
			return r.sess.CloseEdit()
		}
		out, err := r.sess.Submit(ctx, step.ID, values)
		if err != nil {
			return err
		}
		if r.report(ctx, step, out) {
			return nil
		}
		values = out.Values
	}
}

// report prints the outcome and reports whether the step was accepted.
func (r *Runner) report(ctx context.Context, step steps.Step, out wizard.Outcome) bool {
	if !out.Accepted {
		for _, field := range step.Fields {
			if msg, ok := out.Errors[field.Name]; ok {
				r.say(ctx, r.theme.ErrorPrefix, msg)
			}
		}
		return false
	}
	if out.PersistErr != nil {
		r.say(ctx, r.theme.WarningPrefix, render.PersistWarning)
	}
	r.say(ctx, r.theme.InfoPrefix, r.sess.TakeNotice())
	return true
}

// withRetry replaces the submitting action with a lookup retry while the
// step cannot be completed.
func withRetry(actions []string, ready bool) []string {
	if ready {
		return actions
	}
	out := make([]string, 0, len(actions))
	for _, action := range actions {
		if action == ActionNext || action == ActionSave {
			action = ActionRetry
		}
		out = append(out, action)
	}
	return out
}

// collect prompts for the step's fields. It reports false when a lookup
// failure left a control disabled.
func (r *Runner) collect(ctx context.Context, step steps.Step, values validation.Values) (validation.Values, bool, error) {
	out := values.Clone()
	if step.ID == steps.Location {
		return r.collectLocation(ctx, out)
	}

	for _, field := range step.Fields {
		current := out[field.Name]
		var (
			answer string
			err    error
		)
		switch field.Type {
		case model.FieldTypeSecret:
			answer, err = r.driver.Password(ctx, InputConfig{Message: field.Label, Help: field.Description})
			if err == nil && answer == "" {
				answer = current
			}
		case model.FieldTypeTextArea:
			answer, err = r.driver.TextArea(ctx, TextAreaConfig{Message: field.Label, Default: current, Help: field.Description})
		default:
			answer, err = r.driver.Input(ctx, InputConfig{Message: field.Label, Default: current, Help: field.Description})
		}
		if err != nil {
			return nil, false, err
		}
		out[field.Name] = answer
	}
	return out, true, nil
}

// collectLocation offers the looked-up lists only. A failed lookup leaves
// the control empty and the step not ready; there is no free-text fallback.
func (r *Runner) collectLocation(ctx context.Context, out validation.Values) (validation.Values, bool, error) {
	previousCountry := out[model.FieldCountry]
	previousCity := out[model.FieldCity]
	out[model.FieldCountry] = ""
	out[model.FieldCity] = ""

	view := r.sess.LocationOptions(ctx)
	if view.CountriesError != "" || len(view.Countries) == 0 {
		msg := view.CountriesError
		if msg == "" {
			msg = MsgNoCountries
		}
		r.say(ctx, r.theme.ErrorPrefix, msg)
		return out, false, nil
	}
	code, err := r.pickCountry(ctx, view, previousCountry)
	if err != nil {
		return nil, false, err
	}
	view, err = r.sess.SelectCountry(ctx, code)
	if err != nil {
		return nil, false, err
	}
	out[model.FieldCountry] = code

	if view.CitiesDisabled || len(view.Cities) == 0 {
		msg := view.CitiesError
		if msg == "" {
			msg = MsgNoCities
		}
		r.say(ctx, r.theme.ErrorPrefix, msg)
		return out, false, nil
	}
	if code != previousCountry {
		previousCity = ""
	}
	idx, err := r.chooseIndexDefault(ctx, "City", view.Cities, indexOf(view.Cities, previousCity))
	if err != nil {
		return nil, false, err
	}
	city := view.Cities[idx]
	if err := r.sess.SelectCity(city); err != nil {
		r.logger.DebugContext(ctx, "city not recorded", "error", err)
	}
	out[model.FieldCity] = city
	return out, true, nil
}

func (r *Runner) pickCountry(ctx context.Context, view wizard.LocationView, current string) (string, error) {
	labels := make([]string, len(view.Countries))
	defaultIdx := -1
	for i, country := range view.Countries {
		labels[i] = fmt.Sprintf("%s (%s)", country.Name, country.Code)
		if country.Code == current {
			defaultIdx = i
		}
	}
	idx, err := r.chooseIndexDefault(ctx, "Country", labels, defaultIdx)
	if err != nil {
		return "", err
	}
	return view.Countries[idx].Code, nil
}

func (r *Runner) choose(ctx context.Context, message string, options []string) (string, error) {
	idx, err := r.chooseIndex(ctx, message, options)
	if err != nil {
		return "", err
	}
	return options[idx], nil
}

func (r *Runner) chooseIndex(ctx context.Context, message string, options []string) (int, error) {
	return r.chooseIndexDefault(ctx, message, options, 0)
}

// chooseIndexDefault re-prompts until the driver returns an index inside
// options.
func (r *Runner) chooseIndexDefault(ctx context.Context, message string, options []string, defaultIdx int) (int, error) {
	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: defaultIdx,
			PageSize:     10,
		})
		if err != nil {
			return 0, err
		}
		if idx >= 0 && idx < len(options) {
			return idx, nil
		}
		r.say(ctx, r.theme.ErrorPrefix, "Invalid selection")
	}
}

func (r *Runner) say(ctx context.Context, prefix, msg string) {
	if msg == "" {
		return
	}
	if err := r.driver.Info(ctx, prefix+msg); err != nil {
		r.logger.DebugContext(ctx, "message not shown", "error", err)
	}
}
