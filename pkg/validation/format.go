package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// FormatCardNumber groups card digits in blocks of four for display.
func FormatCardNumber(raw string) string {
	digits := NormalizeCardNumber(raw)
	if digits == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry inserts the slash into a canonical MMYY value. Anything else
// is returned unchanged.
func FormatExpiry(raw string) string {
	digits := NormalizeExpiry(raw)
	if len(digits) != 4 {
		return raw
	}
	return digits[:2] + "/" + digits[2:]
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(raw string) string {
	digits := NormalizeCardNumber(raw)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "**** **** **** " + digits
}

// Formatting selects how stored values are presented back to the user.
type Formatting string

const (
	// FormattingRaw shows canonical values as stored.
	FormattingRaw Formatting = "raw"
	// FormattingFormatted groups card digits and inserts the expiry slash.
	FormattingFormatted Formatting = "formatted"
)

// ParseFormatting resolves a formatting mode; empty means raw.
func ParseFormatting(raw string) (Formatting, error) {
	switch Formatting(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormattingRaw:
		return FormattingRaw, nil
	case FormattingFormatted:
		return FormattingFormatted, nil
	}
	return "", fmt.Errorf("validation: unknown display formatting %q", raw)
}

// Apply returns a copy of values prepared for display. Only the card number
// and expiry date are affected.
func (f Formatting) Apply(values Values) Values {
	out := values.Clone()
	if f != FormattingFormatted {
		return out
	}
	if v, ok := out[model.FieldCardNumber]; ok {
		out[model.FieldCardNumber] = FormatCardNumber(v)
	}
	if v, ok := out[model.FieldExpiryDate]; ok && v != "" {
		out[model.FieldExpiryDate] = FormatExpiry(v)
	}
	return out
}
