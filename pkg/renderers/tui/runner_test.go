package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// stubDriver answers prompts from scripts. Selects are scripted by option
// label so tests do not depend on list positions.
type stubDriver struct {
	inputs       []string
	selects      []string
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	menus        [][]string
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted for " + cfg.Message)
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selects) {
		return -1, errors.New("no select scripted for " + cfg.Message)
	}
	label := s.selects[s.selectPos]
	s.selectPos++
	s.menus = append(s.menus, cfg.Options)
	for i, option := range cfg.Options {
		if option == label || strings.HasPrefix(option, label+" (") {
			return i, nil
		}
	}
	return -1, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) saw(msg string) bool {
	for _, m := range s.infoMessages {
		if strings.Contains(m, msg) {
			return true
		}
	}
	return false
}

// offered reports whether some menu listed action.
func (s *stubDriver) offered(action string) bool {
	for _, menu := range s.menus {
		for _, option := range menu {
			if option == action {
				return true
			}
		}
	}
	return false
}

// flakyLookup fails the first calls of each query, then answers from the
// embedded list.
type flakyLookup struct {
	inner           lookup.Collaborator
	countryFailures int
	cityFailures    int
}

func (f *flakyLookup) ListCountries(ctx context.Context) ([]lookup.Country, error) {
	if f.countryFailures > 0 {
		f.countryFailures--
		return nil, errors.New("countries offline")
	}
	return f.inner.ListCountries(ctx)
}

func (f *flakyLookup) ListCities(ctx context.Context, code string) ([]string, error) {
	if f.cityFailures > 0 {
		f.cityFailures--
		return nil, errors.New("cities offline")
	}
	return f.inner.ListCities(ctx, code)
}

func newFlakyLookup(t *testing.T, countryFailures, cityFailures int) *flakyLookup {
	t.Helper()
	static, err := lookup.DefaultStatic()
	if err != nil {
		t.Fatalf("static lookup: %v", err)
	}
	return &flakyLookup{inner: static, countryFailures: countryFailures, cityFailures: cityFailures}
}

func newRunner(t *testing.T, driver *stubDriver, opts ...wizard.Option) (*Runner, *wizard.Session) {
	t.Helper()
	sess, err := wizard.New(store.New(context.Background(), store.NewMemoryKV()), opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	r, err := New(sess, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r, sess
}

func TestRunCompletesWizard(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "Lovelace", "ada@example.com", "", "4111 1111 1111 1111", "12/25"},
		passwords: []string{"123"},
		textAreas: []string{""},
		selects: []string{
			ActionNext,
			"United States", "Chicago", ActionNext,
			ActionNext,
			ActionSubmit,
		},
	}
	var confirmed int
	r, sess := newRunner(t, driver, wizard.WithSink(summary.SinkFunc(func(context.Context, model.FormRecord) error {
		confirmed++
		return nil
	})))

	rec, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := model.FormRecord{
		Personal: model.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Location: model.LocationInfo{Country: "US", City: "Chicago"},
		Payment:  model.PaymentInfo{CardNumber: "4111111111111111", ExpiryDate: "1225", CVV: "123"},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if confirmed != 1 || sess.State() != steps.Personal {
		t.Fatalf("expected one confirmation and a restart, got %d %s", confirmed, sess.State())
	}
	for _, msg := range []string{"Personal information saved!", "**** **** **** 1111", "Your information has been successfully submitted!"} {
		if !driver.saw(msg) {
			t.Fatalf("missing message %q in %#v", msg, driver.infoMessages)
		}
	}
}

func TestRunRetriesRejectedStepAndEdits(t *testing.T) {
	driver := &stubDriver{
		inputs: []string{
			"4111", "12/25",
			"4111111111111111", "12/25",
			"5555555555554444", "0130",
		},
		passwords: []string{"123", "", ""},
		textAreas: []string{"", "", "1 Main St"},
		selects: []string{
			ActionNext,
			ActionNext,
			"Edit Payment Details", ActionSave,
			ActionQuit,
		},
	}
	r, sess := newRunner(t, driver)
	ctx := context.Background()
	for _, in := range []struct {
		id     steps.ID
		values validation.Values
	}{
		{steps.Personal, validation.Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}},
		{steps.Location, validation.Values{"country": "FR", "city": "Lyon"}},
	} {
		if _, err := sess.Submit(ctx, in.id, in.values); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if _, err := r.Run(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if !driver.saw(validation.MsgCardNumberInvalid) {
		t.Fatalf("card error not shown: %#v", driver.infoMessages)
	}
	want := model.PaymentInfo{CardNumber: "5555555555554444", ExpiryDate: "0130", CVV: "123", BillingAddress: "1 Main St"}
	if diff := cmp.Diff(want, sess.Record().Payment); diff != "" {
		t.Fatalf("payment mismatch (-want +got):\n%s", diff)
	}
	if _, editing := sess.Editing(); editing {
		t.Fatalf("edit mode should be closed")
	}
}

func TestRunBackDiscardsLocation(t *testing.T) {
	driver := &stubDriver{
		inputs: []string{
			"Ada", "Lovelace", "ada@example.com", "",
			"Ada", "Lovelace", "ada@example.com", "",
		},
		selects: []string{
			ActionNext,
			"France", "Lyon", ActionBack,
			ActionQuit,
		},
	}
	r, sess := newRunner(t, driver)
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if sess.State() != steps.Personal {
		t.Fatalf("expected personal, got %s", sess.State())
	}
	if got := sess.Record().Location; got != (model.LocationInfo{}) {
		t.Fatalf("unsaved location leaked into the record: %#v", got)
	}
}

func TestRunDiscardEdit(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"Grace", "Hopper", "grace@example.com", ""},
		selects: []string{"Edit Personal Information", ActionDiscard, ActionQuit},
	}
	r, sess := newRunner(t, driver)
	ctx := context.Background()
	for _, in := range []struct {
		id     steps.ID
		values validation.Values
	}{
		{steps.Personal, validation.Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}},
		{steps.Location, validation.Values{"country": "FR", "city": "Lyon"}},
		{steps.Payment, validation.Values{"cardNumber": "4111111111111111", "expiryDate": "1225", "cvv": "123"}},
	} {
		if _, err := sess.Submit(ctx, in.id, in.values); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if _, err := r.Run(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if got := sess.Record().Personal.FirstName; got != "Ada" {
		t.Fatalf("discarded edit was saved: %q", got)
	}
}

func TestRunPropagatesDriverAbort(t *testing.T) {
	r, _ := newRunner(t, &stubDriver{})
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the driver has no answers")
	}
}

func TestRunLocationLookupFailureDisablesControls(t *testing.T) {
	driver := &stubDriver{
		selects: []string{
			ActionRetry,
			"France", ActionRetry,
			"France", "Lyon", ActionNext,
			ActionQuit,
		},
		inputs:    []string{"4111111111111111", "12/25"},
		passwords: []string{"123"},
		textAreas: []string{""},
	}
	r, sess := newRunner(t, driver, wizard.WithLookup(newFlakyLookup(t, 1, 1)))
	ctx := context.Background()
	if _, err := sess.Submit(ctx, steps.Personal, validation.Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := r.Run(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	for _, msg := range []string{lookup.MsgCountriesFailed, lookup.MsgCitiesFailed} {
		if !driver.saw(msg) {
			t.Fatalf("missing message %q in %#v", msg, driver.infoMessages)
		}
	}
	want := [][]string{
		{ActionRetry, ActionBack, ActionQuit},
		{ActionRetry, ActionBack, ActionQuit},
	}
	var got [][]string
	for _, menu := range driver.menus {
		if len(menu) == 3 && menu[0] == ActionRetry {
			got = append(got, menu)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("retry menus mismatch (-want +got):\n%s", diff)
	}
	if want := (model.LocationInfo{Country: "FR", City: "Lyon"}); sess.Record().Location != want {
		t.Fatalf("unexpected location %#v", sess.Record().Location)
	}
}

func TestRunLocationNeverFallsBackToFreeText(t *testing.T) {
	driver := &stubDriver{
		selects: []string{"France", ActionQuit},
	}
	r, sess := newRunner(t, driver, wizard.WithLookup(newFlakyLookup(t, 0, 10)))
	ctx := context.Background()
	if _, err := sess.Submit(ctx, steps.Personal, validation.Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := r.Run(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if driver.inputPos != 0 {
		t.Fatalf("no free-text prompt expected, got %d", driver.inputPos)
	}
	if driver.offered(ActionNext) {
		t.Fatalf("next must not be offered while cities are unavailable: %#v", driver.menus)
	}
	if got := sess.Record().Location; got != (model.LocationInfo{}) {
		t.Fatalf("nothing should be stored, got %#v", got)
	}
}
