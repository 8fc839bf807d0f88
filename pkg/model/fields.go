package model

// FieldType is the simplified enum for wizard input kinds. Renderers map it
// onto HTML input types or terminal prompt kinds.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeSelect   FieldType = "select"
	FieldTypeSecret   FieldType = "secret"
	FieldTypeTextArea FieldType = "textarea"
)

// Field describes one input inside a step. Struct fields are annotated so
// renderers can serialise them directly into template contexts.
type Field struct {
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	Label        string    `json:"label"`
	Required     bool      `json:"required"`
	Placeholder  string    `json:"placeholder,omitempty"`
	Description  string    `json:"description,omitempty"`
	MaxLength    int       `json:"maxLength,omitempty"`
	Autocomplete string    `json:"autocomplete,omitempty"`
}

// PersonalFields describes the personal step controls.
func PersonalFields() []Field {
	return []Field{
		{Name: FieldFirstName, Type: FieldTypeText, Label: "First Name", Required: true, Autocomplete: "given-name"},
		{Name: FieldLastName, Type: FieldTypeText, Label: "Last Name", Required: true, Autocomplete: "family-name"},
		{Name: FieldEmail, Type: FieldTypeEmail, Label: "Email", Required: true, Placeholder: "name@example.com", Autocomplete: "email"},
		{Name: FieldPhone, Type: FieldTypeTel, Label: "Phone", Placeholder: "+1 5551234567", Description: "Optional", Autocomplete: "tel"},
	}
}

// LocationFields describes the location step controls. Both are selects whose
// options come from the lookup collaborator.
func LocationFields() []Field {
	return []Field{
		{Name: FieldCountry, Type: FieldTypeSelect, Label: "Country", Required: true, Placeholder: "Select a country"},
		{Name: FieldCity, Type: FieldTypeSelect, Label: "City", Required: true, Placeholder: "Select a city"},
	}
}

// PaymentFields describes the payment step controls.
func PaymentFields() []Field {
	return []Field{
		{Name: FieldCardNumber, Type: FieldTypeText, Label: "Credit Card Number", Required: true, Placeholder: "1234 5678 9012 3456", MaxLength: 19, Autocomplete: "cc-number"},
		{Name: FieldExpiryDate, Type: FieldTypeText, Label: "Expiry Date", Required: true, Placeholder: "MM/YY", MaxLength: 5, Autocomplete: "cc-exp"},
		{Name: FieldCVV, Type: FieldTypeSecret, Label: "CVV", Required: true, Placeholder: "123", MaxLength: 4, Autocomplete: "cc-csc"},
		{Name: FieldBillingAddress, Type: FieldTypeTextArea, Label: "Billing Address", Description: "Leave empty to use the shipping address"},
	}
}

// FieldsFor returns the descriptors for a section.
func FieldsFor(section Section) []Field {
	switch section {
	case SectionPersonal:
		return PersonalFields()
	case SectionLocation:
		return LocationFields()
	case SectionPayment:
		return PaymentFields()
	}
	return nil
}
