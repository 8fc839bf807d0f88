package render

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// PersistWarning is shown when a submission was accepted but could not be
// written to the slot.
const PersistWarning = "Your progress could not be saved on this device."

// ProgressItem is one entry of the step indicator.
type ProgressItem struct {
	ID       steps.ID `json:"id"`
	Title    string   `json:"title"`
	Route    string   `json:"route"`
	Active   bool     `json:"active"`
	Complete bool     `json:"complete"`
}

// Choice is one option of a select control.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Control is a field descriptor with its current value and feedback.
type Control struct {
	model.Field
	Value    string   `json:"value"`
	Error    string   `json:"error,omitempty"`
	Choices  []Choice `json:"choices,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
	// Message explains why a control is disabled.
	Message string `json:"message,omitempty"`
}

// Form is the editable part of a page.
type Form struct {
	Step     steps.ID      `json:"step"`
	Section  model.Section `json:"section"`
	Title    string        `json:"title"`
	Action   string        `json:"action"`
	Controls []Control     `json:"controls"`
	// Editing marks a form opened from the summary.
	Editing bool `json:"editing"`
}

// Page is the renderer-neutral view of a session.
type Page struct {
	Step      steps.ID       `json:"step"`
	Title     string         `json:"title"`
	Progress  []ProgressItem `json:"progress"`
	Form      *Form          `json:"form,omitempty"`
	Summary   *summary.View  `json:"summary,omitempty"`
	Notice    string         `json:"notice,omitempty"`
	Warning   string         `json:"warning,omitempty"`
	CanGoBack bool           `json:"canGoBack"`
}

// Build assembles the page for the session's current state. A rejected
// outcome for the visible form replaces its values and adds the field errors.
// Build consumes the session notice.
func Build(ctx context.Context, sess *wizard.Session, outcome *wizard.Outcome) (Page, error) {
	dir := sess.Directory()
	state := sess.State()
	current := dir.MustGet(state)

	page := Page{
		Step:   current.ID,
		Title:  current.Title,
		Notice: sess.TakeNotice(),
	}
	if outcome != nil && outcome.PersistErr != nil {
		page.Warning = PersistWarning
	}
	if _, ok := dir.Prev(current.ID); ok && current.IsForm() {
		page.CanGoBack = true
	}

	complete := true
	for _, step := range dir.Steps() {
		if step.ID == current.ID {
			complete = false
		}
		page.Progress = append(page.Progress, ProgressItem{
			ID:       step.ID,
			Title:    step.Title,
			Route:    step.Route,
			Active:   step.ID == current.ID,
			Complete: complete,
		})
	}

	if current.IsForm() {
		form, err := buildForm(ctx, sess, current, current.Route, outcome)
		if err != nil {
			return Page{}, err
		}
		page.Form = form
		return page, nil
	}

	view := sess.Summary(ctx)
	page.Summary = &view
	if section, editing := sess.Editing(); editing {
		step, ok := dir.ForSection(section)
		if ok {
			form, err := buildForm(ctx, sess, step, EditAction(section), outcome)
			if err != nil {
				return Page{}, err
			}
			form.Editing = true
			page.Form = form
		}
	}
	return page, nil
}

// EditAction is the route that saves an edited summary section.
func EditAction(section model.Section) string {
	return "/summary/sections/" + string(section)
}

func buildForm(ctx context.Context, sess *wizard.Session, step steps.Step, action string, outcome *wizard.Outcome) (*Form, error) {
	values, err := sess.Defaults(step.ID)
	if err != nil {
		return nil, err
	}
	var errs map[string]string
	if outcome != nil && !outcome.Accepted && outcome.Step == step.ID {
		values = outcome.Values
		errs = outcome.Errors
	}

	form := &Form{
		Step:    step.ID,
		Section: step.Section,
		Title:   step.Title,
		Action:  action,
	}
	for _, field := range step.Fields {
		form.Controls = append(form.Controls, Control{
			Field: field,
			Value: values[field.Name],
			Error: errs[field.Name],
		})
	}

	if step.ID == steps.Location {
		applyLocation(form, sess.LocationOptions(ctx))
	}
	return form, nil
}

func applyLocation(form *Form, view wizard.LocationView) {
	for i := range form.Controls {
		control := &form.Controls[i]
		switch control.Name {
		case model.FieldCountry:
			if control.Value == "" {
				control.Value = view.Country
			}
			for _, country := range view.Countries {
				control.Choices = append(control.Choices, Choice{
					Value:    country.Code,
					Label:    country.Name,
					Selected: country.Code == control.Value,
				})
			}
			if view.CountriesError != "" {
				control.Disabled = true
				control.Message = view.CountriesError
			}
		case model.FieldCity:
			if control.Value == "" {
				control.Value = view.City
			}
			for _, city := range view.Cities {
				control.Choices = append(control.Choices, Choice{
					Value:    city,
					Label:    city,
					Selected: city == control.Value,
				})
			}
			control.Disabled = view.CitiesDisabled
			control.Message = view.CitiesError
		}
	}
}
