package validation

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

const (
	MsgFirstNameRequired = "First Name is required."
	MsgLastNameRequired  = "Last Name is required."
	MsgEmailRequired     = "Email is required."
	MsgEmailInvalid      = "Invalid email format."
	MsgPhoneInvalid      = "Phone number is not valid."
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Optional +CC prefix of one to three digits, then exactly ten digits.
	phonePattern    = regexp.MustCompile(`^(\+\d{1,3})?\d{10}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// Personal validates the personal step. Phone is optional; when present it is
// stored without separators.
func Personal(in Values) Result {
	out := Values{}
	errs := Errors{}

	requireText(in, model.FieldFirstName, MsgFirstNameRequired, out, errs)
	requireText(in, model.FieldLastName, MsgLastNameRequired, out, errs)

	if email, ok := requireText(in, model.FieldEmail, MsgEmailRequired, out, errs); ok && !emailPattern.MatchString(email) {
		errs[model.FieldEmail] = MsgEmailInvalid
	}

	phone := NormalizePhone(in[model.FieldPhone])
	out[model.FieldPhone] = phone
	if phone != "" && !phonePattern.MatchString(phone) {
		errs[model.FieldPhone] = MsgPhoneInvalid
	}

	return finish(out, errs)
}

// NormalizePhone trims the input and drops common separators.
func NormalizePhone(raw string) string {
	return phoneSeparators.Replace(strings.TrimSpace(raw))
}
