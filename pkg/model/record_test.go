package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultRecordJSONShape(t *testing.T) {
	raw, err := json.Marshal(DefaultRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"personal":{"firstName":"","lastName":"","email":"","phone":""},` +
		`"location":{"country":"","city":""},` +
		`"payment":{"cardNumber":"","expiryDate":"","cvv":"","billingAddress":""}}`
	if string(raw) != want {
		t.Fatalf("default record json mismatch\nwant: %s\n got: %s", want, raw)
	}
}

func TestWithSectionReplacesWholeSection(t *testing.T) {
	rec := DefaultRecord().WithSection(SectionPersonal, map[string]string{
		FieldFirstName: "Ada",
		FieldLastName:  "Lovelace",
		FieldEmail:     "ada@example.com",
		FieldPhone:     "+15551234567",
	})
	rec = rec.WithSection(SectionPersonal, map[string]string{
		FieldFirstName: "Grace",
		FieldLastName:  "Hopper",
		FieldEmail:     "grace@example.com",
	})

	want := PersonalInfo{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	if diff := cmp.Diff(want, rec.Personal); diff != "" {
		t.Fatalf("personal mismatch (-want +got):\n%s", diff)
	}
	if rec.Location != (LocationInfo{}) || rec.Payment != (PaymentInfo{}) {
		t.Fatalf("other sections should stay untouched: %#v", rec)
	}
}

func TestValuesMirrorsWithSection(t *testing.T) {
	for _, section := range Sections() {
		values := map[string]string{}
		for _, field := range FieldsFor(section) {
			values[field.Name] = field.Name + "-value"
		}
		rec := DefaultRecord().WithSection(section, values)
		if diff := cmp.Diff(values, rec.Values(section)); diff != "" {
			t.Fatalf("%s values mismatch (-want +got):\n%s", section, diff)
		}
	}
}

func TestParseSection(t *testing.T) {
	if got, ok := ParseSection(" Payment "); !ok || got != SectionPayment {
		t.Fatalf("expected payment section, got %q (%v)", got, ok)
	}
	if _, ok := ParseSection("summary"); ok {
		t.Fatalf("summary is not a record section")
	}
}
