// Package batch drives document composition, persistence and optional
// delivery across an ordered set of records. Its defining property is
// failure isolation: one record's failure never aborts the batch, and the
// only way a caller learns of partial failure is by inspecting the report.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/delivery"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
)

// DeliverySpec configures per-record delivery for one run. A nil spec
// disables delivery entirely. Subject and Body carry their defaults already
// applied by the caller.
type DeliverySpec struct {
	RecipientField string
	Subject        string
	Body           string
	CC             []string
	BCC            []string
}

// Request bundles the inputs of one batch run. Records are processed
// strictly in slice order; the mapping set must be validated before the run
// starts (configuration-level problems are fatal and belong to the caller,
// not the report).
type Request struct {
	Records             []record.Record
	TemplateBytes       []byte
	Set                 *mapping.MappingSet
	DocumentNumberField string
	Delivery            *DeliverySpec
}

// Orchestrator executes batch runs. Processing is single-threaded and
// record-at-a-time: one record is fully resolved (compose, persist,
// optional delivery, report append) before the next starts, keeping
// resource consumption bounded against rate-limited collaborators.
type Orchestrator struct {
	compositor Compositor
	store      DocumentStore
	deliverer  Deliverer
	logger     *zap.Logger
}

// NewOrchestrator wires an orchestrator. The deliverer may be nil when the
// deployment has no delivery channel; runs with a DeliverySpec then record
// a delivery error per applicable record without failing generation.
func NewOrchestrator(c Compositor, store DocumentStore, d Deliverer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		compositor: c,
		store:      store,
		deliverer:  d,
		logger:     logger,
	}
}

// Run processes every record in input order and returns the completed
// report. Run itself never fails: per-record errors are recorded as Failure
// results and processing continues with the next record. Cancellation is
// cooperative at record granularity — a caller wishing to abort truncates
// the record sequence it feeds in.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Report {
	report := newReport()

	o.logger.Info("Starting batch run",
		zap.String("run_id", report.RunID),
		zap.String("mapping_set", req.Set.Name),
		zap.Int("records", len(req.Records)))

	for i, rec := range req.Records {
		res := o.processRecord(ctx, req, rec, i+1)
		report.append(res)
	}

	report.CompletedAt = time.Now()
	o.logger.Info("Batch run complete",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.TotalProcessed),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()))
	return report
}

// processRecord fully resolves one record. Any error short of success is
// folded into the returned result, never propagated.
func (o *Orchestrator) processRecord(ctx context.Context, req Request, rec record.Record, position int) GenerationResult {
	docNumber := o.documentNumber(rec, req.DocumentNumberField, position)
	res := GenerationResult{
		RowID:          rec.RowID,
		DocumentNumber: docNumber,
	}

	data, err := o.compositor.Compose(req.TemplateBytes, rec, req.Set)
	if err != nil {
		o.logger.Warn("Record failed composition",
			zap.String("row_id", rec.RowID),
			zap.String("document_number", docNumber),
			zap.Error(err))
		res.FailureReason = err.Error()
		return res
	}

	filename := fmt.Sprintf("%s.%s", docNumber, req.Set.Output.EffectiveExtension())
	fileRef, err := o.store.Persist(ctx, req.Set.Output.FolderID, filename, data)
	if err != nil {
		o.logger.Warn("Record failed persistence",
			zap.String("row_id", rec.RowID),
			zap.String("filename", filename),
			zap.Error(err))
		res.FailureReason = err.Error()
		return res
	}

	res.Success = true
	res.FileRef = fileRef

	o.deliverRecord(ctx, req.Delivery, rec, docNumber, &res)
	return res
}

// deliverRecord attempts delivery when configured and the record carries a
// non-blank recipient. Delivery errors are recorded on the result but do
// not retroactively fail the record.
func (o *Orchestrator) deliverRecord(ctx context.Context, spec *DeliverySpec, rec record.Record, docNumber string, res *GenerationResult) {
	if spec == nil {
		return
	}

	recipient := strings.TrimSpace(rec.Get(spec.RecipientField).String())
	if recipient == "" {
		o.logger.Debug("Skipping delivery for record without recipient",
			zap.String("row_id", rec.RowID))
		return
	}

	res.DeliveryAttempted = true
	if o.deliverer == nil {
		res.DeliveryError = "no delivery channel configured"
		return
	}

	err := o.deliverer.Deliver(ctx, delivery.Message{
		Recipient: recipient,
		Subject:   spec.Subject,
		Body:      spec.Body,
		CC:        spec.CC,
		BCC:       spec.BCC,
		File:      res.FileRef,
	})
	if err != nil {
		o.logger.Warn("Delivery failed",
			zap.String("row_id", rec.RowID),
			zap.String("recipient", recipient),
			zap.Error(err))
		res.DeliveryError = err.Error()
	}
}

// documentNumber resolves the record's human-facing identifier: the value
// at the configured field when present and non-empty, else the positional
// fallback Document_{1-based index}.
func (o *Orchestrator) documentNumber(rec record.Record, field string, position int) string {
	if field != "" {
		if v := strings.TrimSpace(rec.Get(field).String()); v != "" {
			return sanitizeFilename(v)
		}
	}
	return fmt.Sprintf("Document_%d", position)
}

// sanitizeFilename strips path separators and reserved characters so a
// record value can serve as an output filename stem.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(name)
}
