package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakrise/docstamp/internal/docstore"
)

// GenerationResult is the outcome of one attempted record.
type GenerationResult struct {
	RowID          string           `json:"rowId"`
	DocumentNumber string           `json:"documentNumber"`
	Success        bool             `json:"success"`
	FileRef        docstore.FileRef `json:"fileRef,omitempty"`
	FailureReason  string           `json:"failureReason,omitempty"`

	// DeliveryAttempted records whether delivery was invoked for this
	// record. A delivery failure is surfaced in DeliveryError but does not
	// flip Success: generation and delivery outcomes are independent.
	DeliveryAttempted bool   `json:"deliveryAttempted"`
	DeliveryError     string `json:"deliveryError,omitempty"`
}

// Report aggregates the per-record outcomes of one batch run, in input
// order. It is append-only while the run is in flight and immutable once
// the run returns it.
type Report struct {
	RunID          string             `json:"runId"`
	StartedAt      time.Time          `json:"startedAt"`
	CompletedAt    time.Time          `json:"completedAt"`
	TotalProcessed int                `json:"totalProcessed"`
	Results        []GenerationResult `json:"results"`
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

func (r *Report) append(res GenerationResult) {
	r.Results = append(r.Results, res)
	r.TotalProcessed++
}

// Succeeded counts records whose document was generated and persisted.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed counts records that produced no document.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}
