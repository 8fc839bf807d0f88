package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPersonal(t *testing.T) {
	tests := []struct {
		name       string
		in         Values
		wantValues Values
		wantErrors Errors
	}{
		{
			name: "valid without phone",
			in:   Values{"firstName": " Ada ", "lastName": "Lovelace", "email": "ada@example.com", "phone": ""},
			wantValues: Values{
				"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "",
			},
		},
		{
			name: "phone with country code and separators",
			in:   Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "+1 555-123-4567"},
			wantValues: Values{
				"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "+15551234567",
			},
		},
		{
			name: "blank names and malformed email",
			in:   Values{"firstName": "   ", "lastName": "", "email": "ada@example", "phone": "12345"},
			wantErrors: Errors{
				"firstName": MsgFirstNameRequired,
				"lastName":  MsgLastNameRequired,
				"email":     MsgEmailInvalid,
				"phone":     MsgPhoneInvalid,
			},
		},
		{
			name:       "missing email",
			in:         Values{"firstName": "Ada", "lastName": "Lovelace"},
			wantErrors: Errors{"email": MsgEmailRequired},
		},
		{
			name:       "country code without plus is rejected",
			in:         Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "15551234567"},
			wantErrors: Errors{"phone": MsgPhoneInvalid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personal(tt.in)
			if tt.wantErrors != nil {
				if diff := cmp.Diff(tt.wantErrors, got.Errors); diff != "" {
					t.Fatalf("errors mismatch (-want +got):\n%s", diff)
				}
				if got.OK() {
					t.Fatalf("expected rejection")
				}
				return
			}
			if !got.OK() {
				t.Fatalf("unexpected errors: %#v", got.Errors)
			}
			if diff := cmp.Diff(tt.wantValues, got.Values); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	got := Location(Values{"country": "", "city": " "})
	want := Errors{"country": MsgCountryRequired, "city": MsgCityRequired}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	got = Location(Values{"country": "us", "city": "Chicago"})
	if diff := cmp.Diff(Values{"country": "US", "city": "Chicago"}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestLocationStrictMembership(t *testing.T) {
	rule := LocationRule(
		WithCountries([]string{"US", "FR"}),
		WithCities([]string{"Chicago", "New York"}),
	)

	got := rule(Values{"country": "de", "city": "Berlin"})
	want := Errors{"country": MsgCountryUnavailable, "city": MsgCityUnavailable}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	got = rule(Values{"country": "us", "city": "new york"})
	if diff := cmp.Diff(Values{"country": "US", "city": "New York"}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPayment(t *testing.T) {
	tests := []struct {
		name       string
		in         Values
		wantValues Values
		wantErrors Errors
	}{
		{
			name: "formatted input is normalized",
			in:   Values{"cardNumber": "4111 1111-1111 1111", "expiryDate": "12/25", "cvv": "123", "billingAddress": ""},
			wantValues: Values{
				"cardNumber": "4111111111111111", "expiryDate": "1225", "cvv": "123", "billingAddress": "",
			},
		},
		{
			name:       "short card is rejected, not padded",
			in:         Values{"cardNumber": "411111111111111", "expiryDate": "1225", "cvv": "1234"},
			wantErrors: Errors{"cardNumber": MsgCardNumberInvalid},
		},
		{
			name:       "month out of range",
			in:         Values{"cardNumber": "4111111111111111", "expiryDate": "13/25", "cvv": "123"},
			wantErrors: Errors{"expiryDate": MsgExpiryInvalid},
		},
		{
			name:       "four digit year is rejected",
			in:         Values{"cardNumber": "4111111111111111", "expiryDate": "12/2025", "cvv": "12"},
			wantErrors: Errors{"expiryDate": MsgExpiryInvalid, "cvv": MsgCVVInvalid},
		},
		{
			name: "empty input",
			in:   Values{},
			wantErrors: Errors{
				"cardNumber": MsgCardNumberRequired,
				"expiryDate": MsgExpiryRequired,
				"cvv":        MsgCVVRequired,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Payment(tt.in)
			if tt.wantErrors != nil {
				if diff := cmp.Diff(tt.wantErrors, got.Errors); diff != "" {
					t.Fatalf("errors mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if !got.OK() {
				t.Fatalf("unexpected errors: %#v", got.Errors)
			}
			if diff := cmp.Diff(tt.wantValues, got.Values); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatCardNumber("4111111111111111"); got != "4111 1111 1111 1111" {
		t.Fatalf("format card: %q", got)
	}
	if got := FormatExpiry("1225"); got != "12/25" {
		t.Fatalf("format expiry: %q", got)
	}
	if got := FormatExpiry("12/25"); got != "12/25" {
		t.Fatalf("format expiry idempotent: %q", got)
	}
	if got := MaskCardNumber("4111 1111 1111 1111"); got != "**** **** **** 1111" {
		t.Fatalf("mask card: %q", got)
	}
}

func TestErrorsFieldsSorted(t *testing.T) {
	errs := Errors{"cvv": "x", "cardNumber": "y", "expiryDate": "z"}
	if diff := cmp.Diff([]string{"cardNumber", "cvv", "expiryDate"}, errs.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFormattingApply(t *testing.T) {
	stored := Values{"cardNumber": "4111111111111111", "expiryDate": "1225", "cvv": "123"}

	raw := FormattingRaw.Apply(stored)
	if diff := cmp.Diff(stored, raw); diff != "" {
		t.Fatalf("raw should not change values (-want +got):\n%s", diff)
	}

	formatted := FormattingFormatted.Apply(stored)
	want := Values{"cardNumber": "4111 1111 1111 1111", "expiryDate": "12/25", "cvv": "123"}
	if diff := cmp.Diff(want, formatted); diff != "" {
		t.Fatalf("formatted mismatch (-want +got):\n%s", diff)
	}
	if stored["cardNumber"] != "4111111111111111" {
		t.Fatalf("apply must not mutate its input")
	}

	if _, err := ParseFormatting("fancy"); err == nil {
		t.Fatalf("expected unknown formatting error")
	}
	if f, err := ParseFormatting(""); err != nil || f != FormattingRaw {
		t.Fatalf("empty formatting should default to raw, got %q %v", f, err)
	}
}
