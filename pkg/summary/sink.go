package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Sink receives confirmed records.
type Sink interface {
	Submit(ctx context.Context, record model.FormRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, record model.FormRecord) error

func (f SinkFunc) Submit(ctx context.Context, record model.FormRecord) error {
	return f(ctx, record)
}

// LogSink logs confirmed records. Payment secrets are masked.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Submit(ctx context.Context, record model.FormRecord) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "form submitted",
		slog.Group("personal",
			"first_name", record.Personal.FirstName,
			"last_name", record.Personal.LastName,
			"email", record.Personal.Email,
			"phone", record.Personal.Phone,
		),
		slog.Group("location",
			"country", record.Location.Country,
			"city", record.Location.City,
		),
		slog.Group("payment",
			"card_number", validation.MaskCardNumber(record.Payment.CardNumber),
			"expiry_date", record.Payment.ExpiryDate,
			"billing_address", record.Payment.BillingAddress,
		),
	)
	return nil
}

// OutputFormat controls how WriterSink serializes records.
type OutputFormat string

const (
	// OutputFormatJSON emits the full record as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits the assembled summary as text.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// WriterSink writes confirmed records to W.
type WriterSink struct {
	W      io.Writer
	Format OutputFormat
	// Options apply to the pretty text format.
	Options []Option
}

func (s WriterSink) Submit(_ context.Context, record model.FormRecord) error {
	if s.W == nil {
		return errors.New("summary: writer sink has no writer")
	}
	switch s.Format {
	case OutputFormatPrettyText:
		_, err := io.WriteString(s.W, RenderText(Assemble(record, s.Options...)))
		return err
	case OutputFormatJSON, "":
		enc := json.NewEncoder(s.W)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("summary: encode record: %w", err)
		}
		return nil
	}
	return fmt.Errorf("summary: unknown output format %q", s.Format)
}

// MultiSink fans a record out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Submit(ctx context.Context, record model.FormRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Submit(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RenderText formats a view as aligned plain text.
func RenderText(view View) string {
	width := 0
	for _, section := range view.Sections {
		for _, row := range section.Rows {
			if len(row.Label) > width {
				width = len(row.Label)
			}
		}
	}

	var b strings.Builder
	for i, section := range view.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(section.Title)
		b.WriteByte('\n')
		for _, row := range section.Rows {
			fmt.Fprintf(&b, "  %-*s  %s\n", width, row.Label+":", row.Value)
		}
	}
	return b.String()
}
