// Package summary assembles the read-only review of a FormRecord and hands the
// confirmed record to a Sink.
package summary

import (
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Display placeholders.
const (
	NotProvided     = "N/A"
	SameAsShipping  = "Same as shipping"
	MaskedCVV       = "***"
	titlePersonal   = "Personal Information"
	titleLocation   = "Location"
	titlePayment    = "Payment Details"
	labelFirstName  = "First Name"
	labelLastName   = "Last Name"
	labelEmail      = "Email"
	labelPhone      = "Phone"
	labelCountry    = "Country"
	labelCity       = "City"
	labelCardNumber = "Credit Card Number"
	labelExpiry     = "Expiry Date"
	labelCVV        = "CVV"
	labelBilling    = "Billing Address"
)

// Row is one labelled value.
type Row struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section groups the rows of one record section.
type Section struct {
	ID      model.Section `json:"id"`
	Title   string        `json:"title"`
	Rows    []Row         `json:"rows"`
	Editing bool          `json:"editing"`
}

// View is the assembled summary.
type View struct {
	Sections []Section    `json:"sections"`
	Editing  model.Section `json:"editing,omitempty"`
}

// Section returns the section with id.
func (v View) Section(id model.Section) (Section, bool) {
	for _, s := range v.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

type options struct {
	formatting   validation.Formatting
	countryNames map[string]string
	editing      model.Section
}

// Option customises assembly.
type Option func(*options)

// WithFormatting selects raw or formatted expiry display.
func WithFormatting(f validation.Formatting) Option {
	return func(o *options) {
		o.formatting = f
	}
}

// WithCountryNames shows country names instead of codes where known.
func WithCountryNames(names map[string]string) Option {
	return func(o *options) {
		o.countryNames = names
	}
}

// WithEditing flags the section currently open for editing.
func WithEditing(section model.Section) Option {
	return func(o *options) {
		o.editing = section
	}
}

// Assemble builds the summary. The card number is always masked and the CVV
// never shown.
func Assemble(record model.FormRecord, opts ...Option) View {
	cfg := options{formatting: validation.FormattingRaw}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	country := record.Location.Country
	if name, ok := cfg.countryNames[country]; ok && name != "" {
		country = name
	}

	expiry := record.Payment.ExpiryDate
	if cfg.formatting == validation.FormattingFormatted {
		expiry = validation.FormatExpiry(expiry)
	}

	view := View{
		Editing: cfg.editing,
		Sections: []Section{
			{
				ID:    model.SectionPersonal,
				Title: titlePersonal,
				Rows: []Row{
					{Field: model.FieldFirstName, Label: labelFirstName, Value: record.Personal.FirstName},
					{Field: model.FieldLastName, Label: labelLastName, Value: record.Personal.LastName},
					{Field: model.FieldEmail, Label: labelEmail, Value: record.Personal.Email},
					{Field: model.FieldPhone, Label: labelPhone, Value: orDefault(record.Personal.Phone, NotProvided)},
				},
			},
			{
				ID:    model.SectionLocation,
				Title: titleLocation,
				Rows: []Row{
					{Field: model.FieldCountry, Label: labelCountry, Value: country},
					{Field: model.FieldCity, Label: labelCity, Value: record.Location.City},
				},
			},
			{
				ID:    model.SectionPayment,
				Title: titlePayment,
				Rows: []Row{
					{Field: model.FieldCardNumber, Label: labelCardNumber, Value: maskedOr(record.Payment.CardNumber, validation.MaskCardNumber(record.Payment.CardNumber))},
					{Field: model.FieldExpiryDate, Label: labelExpiry, Value: expiry},
					{Field: model.FieldCVV, Label: labelCVV, Value: maskedOr(record.Payment.CVV, MaskedCVV)},
					{Field: model.FieldBillingAddress, Label: labelBilling, Value: orDefault(record.Payment.BillingAddress, SameAsShipping)},
				},
			},
		},
	}
	for i := range view.Sections {
		view.Sections[i].Editing = view.Sections[i].ID == cfg.editing
	}
	return view
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// maskedOr returns masked, or NotProvided when there is nothing to mask.
func maskedOr(raw, masked string) string {
	if strings.TrimSpace(raw) == "" {
		return NotProvided
	}
	return masked
}
