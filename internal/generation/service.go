// Package generation wires the collaborators for one batch run: it resolves
// the named configuration, the template and the records, then hands off to
// the orchestrator. Configuration-level problems surface here as returned
// errors before any record is touched, so callers can distinguish "batch
// did not start" from "batch ran with failures".
package generation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/batch"
	"github.com/oakrise/docstamp/internal/configstore"
	"github.com/oakrise/docstamp/internal/datasource"
	"github.com/oakrise/docstamp/internal/docstore"
)

// DeliveryDefaults supplies the subject and body applied when a mapping
// set's delivery settings leave them unset.
type DeliveryDefaults struct {
	Subject string
	Body    string
}

// RunRequest identifies the inputs of one batch run.
type RunRequest struct {
	ConfigName          string `json:"configName"`
	SourceID            string `json:"sourceId"`
	Sheet               string `json:"sheet"`
	Rows                []int  `json:"rows,omitempty"`
	DocumentNumberField string `json:"documentNumberField,omitempty"`
}

// Service resolves run inputs and executes batches.
type Service struct {
	configs      configstore.Store
	documents    docstore.Store
	source       datasource.Source
	orchestrator *batch.Orchestrator
	defaults     DeliveryDefaults
	logger       *zap.Logger
}

// NewService wires a generation service.
func NewService(
	configs configstore.Store,
	documents docstore.Store,
	source datasource.Source,
	orchestrator *batch.Orchestrator,
	defaults DeliveryDefaults,
	logger *zap.Logger,
) *Service {
	return &Service{
		configs:      configs,
		documents:    documents,
		source:       source,
		orchestrator: orchestrator,
		defaults:     defaults,
		logger:       logger,
	}
}

// Generate runs one batch. All returned errors are fatal pre-checks raised
// before the first record is processed; once the run starts, per-record
// failures live only in the report.
func (s *Service) Generate(ctx context.Context, req RunRequest) (*batch.Report, error) {
	set, err := s.configs.Load(ctx, req.ConfigName)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	templateBytes, err := s.documents.FetchTemplate(ctx, set.PDFTemplateID)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", set.PDFTemplateID, err)
	}

	records, err := s.source.FetchRecords(ctx, req.SourceID, req.Sheet, req.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	var spec *batch.DeliverySpec
	if set.Delivery.Enabled && set.Delivery.RecipientField != "" {
		spec = &batch.DeliverySpec{
			RecipientField: set.Delivery.RecipientField,
			Subject:        set.Delivery.Subject,
			Body:           set.Delivery.Body,
			CC:             set.Delivery.CC,
			BCC:            set.Delivery.BCC,
		}
		if spec.Subject == "" {
			spec.Subject = s.defaults.Subject
		}
		if spec.Body == "" {
			spec.Body = s.defaults.Body
		}
	}

	s.logger.Info("Batch inputs resolved",
		zap.String("config", set.Name),
		zap.String("template", set.PDFTemplateID),
		zap.String("source", req.SourceID),
		zap.String("sheet", req.Sheet),
		zap.Int("records", len(records)),
		zap.Bool("delivery", spec != nil))

	return s.orchestrator.Run(ctx, batch.Request{
		Records:             records,
		TemplateBytes:       templateBytes,
		Set:                 set,
		DocumentNumberField: req.DocumentNumberField,
		Delivery:            spec,
	}), nil
}
