package validation

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

const (
	MsgCardNumberRequired = "Credit Card Number is required."
	MsgCardNumberInvalid  = "Credit Card Number must be 16 digits."
	MsgExpiryRequired     = "Expiry Date is required."
	MsgExpiryInvalid      = "Expiry Date must be in MM/YY format."
	MsgCVVRequired        = "CVV is required."
	MsgCVVInvalid         = "CVV must be 3 or 4 digits."
)

var (
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)

	cardSeparators   = strings.NewReplacer(" ", "", "-", "")
	expirySeparators = strings.NewReplacer("/", "", " ", "")
)

// Payment validates the payment step. Card number and expiry are stored in
// their canonical digit form; partial input is rejected, never padded.
func Payment(in Values) Result {
	out := Values{}
	errs := Errors{}

	card := NormalizeCardNumber(in[model.FieldCardNumber])
	out[model.FieldCardNumber] = card
	switch {
	case card == "":
		errs[model.FieldCardNumber] = MsgCardNumberRequired
	case !cardPattern.MatchString(card):
		errs[model.FieldCardNumber] = MsgCardNumberInvalid
	}

	expiry := NormalizeExpiry(in[model.FieldExpiryDate])
	out[model.FieldExpiryDate] = expiry
	switch {
	case expiry == "":
		errs[model.FieldExpiryDate] = MsgExpiryRequired
	case !expiryPattern.MatchString(expiry):
		errs[model.FieldExpiryDate] = MsgExpiryInvalid
	}

	if cvv, ok := requireText(in, model.FieldCVV, MsgCVVRequired, out, errs); ok && !cvvPattern.MatchString(cvv) {
		errs[model.FieldCVV] = MsgCVVInvalid
	}

	out[model.FieldBillingAddress] = strings.TrimSpace(in[model.FieldBillingAddress])

	return finish(out, errs)
}

// NormalizeCardNumber strips whitespace and dashes.
func NormalizeCardNumber(raw string) string {
	return cardSeparators.Replace(strings.TrimSpace(raw))
}

// NormalizeExpiry strips the slash and whitespace.
func NormalizeExpiry(raw string) string {
	return expirySeparators.Replace(strings.TrimSpace(raw))
}
