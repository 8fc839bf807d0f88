// Package steps describes the ordered wizard steps: their identifiers, titles,
// routes, the record section each one edits and the rule that guards it.
package steps

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// ID identifies a wizard step.
type ID string

const (
	Personal ID = "personal"
	Location ID = "location"
	Payment  ID = "payment"
	Summary  ID = "summary"
)

// Step is a single entry of the directory. Summary has no section, fields or
// rule.
type Step struct {
	ID      ID
	Title   string
	Route   string
	Section model.Section
	Fields  []model.Field
	Rule    validation.Rule
	// Saved is the notice shown after a successful submission.
	Saved string
}

// IsForm reports whether the step collects input.
func (s Step) IsForm() bool {
	return s.Rule != nil
}

// Directory is an ordered, immutable list of steps.
type Directory struct {
	steps []Step
	index map[ID]int
}

// Default returns Personal -> Location -> Payment -> Summary.
func Default() *Directory {
	d := &Directory{
		steps: []Step{
			{
				ID:      Personal,
				Title:   "Personal Information",
				Route:   "/",
				Section: model.SectionPersonal,
				Fields:  model.PersonalFields(),
				Rule:    validation.Personal,
				Saved:   "Personal information saved!",
			},
			{
				ID:      Location,
				Title:   "Location",
				Route:   "/location",
				Section: model.SectionLocation,
				Fields:  model.LocationFields(),
				Rule:    validation.LocationRule(),
				Saved:   "Location information saved!",
			},
			{
				ID:      Payment,
				Title:   "Payment Details",
				Route:   "/payment",
				Section: model.SectionPayment,
				Fields:  model.PaymentFields(),
				Rule:    validation.Payment,
				Saved:   "Payment information saved!",
			},
			{
				ID:    Summary,
				Title: "Summary",
				Route: "/summary",
				Saved: "Your information has been successfully submitted!",
			},
		},
	}
	d.reindex()
	return d
}

func (d *Directory) reindex() {
	d.index = make(map[ID]int, len(d.steps))
	for i, step := range d.steps {
		d.index[step.ID] = i
	}
}

// Steps returns a copy of the ordered steps.
func (d *Directory) Steps() []Step {
	return append([]Step(nil), d.steps...)
}

// First returns the initial step.
func (d *Directory) First() Step {
	return d.steps[0]
}

// Get returns the step for id.
func (d *Directory) Get(id ID) (Step, bool) {
	i, ok := d.index[id]
	if !ok {
		return Step{}, false
	}
	return d.steps[i], true
}

// MustGet panics when id is unknown.
func (d *Directory) MustGet(id ID) Step {
	step, ok := d.Get(id)
	if !ok {
		panic(fmt.Sprintf("steps: unknown step %q", id))
	}
	return step
}

// Next returns the step after id.
func (d *Directory) Next(id ID) (Step, bool) {
	i, ok := d.index[id]
	if !ok || i+1 >= len(d.steps) {
		return Step{}, false
	}
	return d.steps[i+1], true
}

// Prev returns the step before id.
func (d *Directory) Prev(id ID) (Step, bool) {
	i, ok := d.index[id]
	if !ok || i == 0 {
		return Step{}, false
	}
	return d.steps[i-1], true
}

// ForSection returns the step editing section.
func (d *Directory) ForSection(section model.Section) (Step, bool) {
	for _, step := range d.steps {
		if step.Section == section && section != "" {
			return step, true
		}
	}
	return Step{}, false
}

// ByRoute resolves a request path to its step. Trailing slashes are ignored.
func (d *Directory) ByRoute(route string) (Step, bool) {
	route = strings.TrimSpace(route)
	if route != "/" {
		route = strings.TrimRight(route, "/")
	}
	if route == "" {
		route = "/"
	}
	for _, step := range d.steps {
		if step.Route == route {
			return step, true
		}
	}
	return Step{}, false
}

// Parse resolves a step identifier.
func (d *Directory) Parse(raw string) (Step, bool) {
	return d.Get(ID(strings.ToLower(strings.TrimSpace(raw))))
}
