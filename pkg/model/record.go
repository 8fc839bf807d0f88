package model

import "strings"

// Section identifies one of the three record sections.
type Section string

const (
	SectionPersonal Section = "personal"
	SectionLocation Section = "location"
	SectionPayment  Section = "payment"
)

// Sections lists the record sections in wizard order.
func Sections() []Section {
	return []Section{SectionPersonal, SectionLocation, SectionPayment}
}

// ParseSection resolves a section identifier, ignoring case and surrounding
// whitespace.
func ParseSection(raw string) (Section, bool) {
	switch Section(strings.ToLower(strings.TrimSpace(raw))) {
	case SectionPersonal:
		return SectionPersonal, true
	case SectionLocation:
		return SectionLocation, true
	case SectionPayment:
		return SectionPayment, true
	}
	return "", false
}

// Field name constants double as JSON keys and form control names.
const (
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldCountry        = "country"
	FieldCity           = "city"
	FieldCardNumber     = "cardNumber"
	FieldExpiryDate     = "expiryDate"
	FieldCVV            = "cvv"
	FieldBillingAddress = "billingAddress"
)

// PersonalInfo is the first step's section.
type PersonalInfo struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone" yaml:"phone"`
}

// LocationInfo stores the selected country code and city name.
type LocationInfo struct {
	Country string `json:"country" yaml:"country"`
	City    string `json:"city" yaml:"city"`
}

// PaymentInfo stores canonical payment values: digits only for the card
// number and MMYY for the expiry date.
type PaymentInfo struct {
	CardNumber     string `json:"cardNumber" yaml:"cardNumber"`
	ExpiryDate     string `json:"expiryDate" yaml:"expiryDate"`
	CVV            string `json:"cvv" yaml:"cvv"`
	BillingAddress string `json:"billingAddress" yaml:"billingAddress"`
}

// FormRecord is the aggregate collected across the wizard.
type FormRecord struct {
	Personal PersonalInfo `json:"personal" yaml:"personal"`
	Location LocationInfo `json:"location" yaml:"location"`
	Payment  PaymentInfo  `json:"payment" yaml:"payment"`
}

// DefaultRecord returns the record used on first start and after a reset.
func DefaultRecord() FormRecord {
	return FormRecord{}
}

// IsZero reports whether every field still holds its default.
func (r FormRecord) IsZero() bool {
	return r == FormRecord{}
}

// Values returns the section's fields keyed by field name.
func (r FormRecord) Values(section Section) map[string]string {
	switch section {
	case SectionPersonal:
		return map[string]string{
			FieldFirstName: r.Personal.FirstName,
			FieldLastName:  r.Personal.LastName,
			FieldEmail:     r.Personal.Email,
			FieldPhone:     r.Personal.Phone,
		}
	case SectionLocation:
		return map[string]string{
			FieldCountry: r.Location.Country,
			FieldCity:    r.Location.City,
		}
	case SectionPayment:
		return map[string]string{
			FieldCardNumber:     r.Payment.CardNumber,
			FieldExpiryDate:     r.Payment.ExpiryDate,
			FieldCVV:            r.Payment.CVV,
			FieldBillingAddress: r.Payment.BillingAddress,
		}
	}
	return map[string]string{}
}

// WithSection returns a copy of the record with the section replaced by
// values. Fields missing from values are set to the empty string, so the
// section is overwritten as a whole.
func (r FormRecord) WithSection(section Section, values map[string]string) FormRecord {
	out := r
	switch section {
	case SectionPersonal:
		out.Personal = PersonalInfo{
			FirstName: values[FieldFirstName],
			LastName:  values[FieldLastName],
			Email:     values[FieldEmail],
			Phone:     values[FieldPhone],
		}
	case SectionLocation:
		out.Location = LocationInfo{
			Country: values[FieldCountry],
			City:    values[FieldCity],
		}
	case SectionPayment:
		out.Payment = PaymentInfo{
			CardNumber:     values[FieldCardNumber],
			ExpiryDate:     values[FieldExpiryDate],
			CVV:            values[FieldCVV],
			BillingAddress: values[FieldBillingAddress],
		}
	}
	return out
}
