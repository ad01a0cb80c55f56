package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/delivery"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
)

// fakeCompositor fails for row ids listed in failRows.
type fakeCompositor struct {
	failRows map[string]bool
	calls    []string
}

func (f *fakeCompositor) Compose(templateBytes []byte, rec record.Record, set *mapping.MappingSet) ([]byte, error) {
	f.calls = append(f.calls, rec.RowID)
	if f.failRows[rec.RowID] {
		return nil, errors.New("template is not a readable PDF")
	}
	return []byte("doc:" + rec.RowID), nil
}

// fakeStore records persisted filenames and can fail selected ones.
type fakeStore struct {
	failFiles map[string]bool
	persisted []string
}

func (f *fakeStore) Persist(ctx context.Context, folderID, filename string, data []byte) (docstore.FileRef, error) {
	if f.failFiles[filename] {
		return docstore.FileRef{}, errors.New("failed to persist document")
	}
	f.persisted = append(f.persisted, filename)
	return docstore.FileRef{ID: filename, Path: "/out/" + filename}, nil
}

// fakeDeliverer records messages and can fail every delivery.
type fakeDeliverer struct {
	fail     bool
	messages []delivery.Message
}

func (f *fakeDeliverer) Deliver(ctx context.Context, msg delivery.Message) error {
	if f.fail {
		return errors.New("messaging API error")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func testRecords(n int) []record.Record {
	records := make([]record.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, record.Record{
			RowID: fmt.Sprintf("Sheet1!%d", i),
			Fields: map[string]record.Value{
				"Invoice": record.StringValue(fmt.Sprintf("INV-%03d", i)),
				"Email":   record.StringValue(fmt.Sprintf("user%d@example.com", i)),
			},
		})
	}
	return records
}

func requestFor(records []record.Record) Request {
	return Request{
		Records:       records,
		TemplateBytes: []byte("%PDF-fake"),
		Set: &mapping.MappingSet{
			Name:          "invoices",
			PDFTemplateID: "invoice.pdf",
		},
		DocumentNumberField: "Invoice",
	}
}

func TestRunIsolatesPerRecordFailures(t *testing.T) {
	comp := &fakeCompositor{failRows: map[string]bool{"Sheet1!2": true, "Sheet1!4": true}}
	store := &fakeStore{}
	o := NewOrchestrator(comp, store, nil, zap.NewNop())

	report := o.Run(context.Background(), requestFor(testRecords(5)))

	require.Len(t, report.Results, 5, "every attempted record yields a result")
	assert.Equal(t, 5, report.TotalProcessed, "attempted count, not successes only")
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, 3, report.Succeeded())

	// Order of results matches input order, failures in place.
	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("Sheet1!%d", i+1), res.RowID)
	}
	assert.False(t, report.Results[1].Success)
	assert.NotEmpty(t, report.Results[1].FailureReason)
	assert.True(t, report.Results[4].Success, "records after a failure are still processed")

	assert.Equal(t, []string{"INV-001.pdf", "INV-003.pdf", "INV-005.pdf"}, store.persisted)
}

func TestRunDocumentNumberFallback(t *testing.T) {
	records := testRecords(3)
	// 3rd record has no value at the document number field.
	records[2].Fields["Invoice"] = record.AbsentValue()

	store := &fakeStore{}
	o := NewOrchestrator(&fakeCompositor{}, store, nil, zap.NewNop())
	report := o.Run(context.Background(), requestFor(records))

	assert.Equal(t, "INV-001", report.Results[0].DocumentNumber)
	assert.Equal(t, "Document_3", report.Results[2].DocumentNumber)
	assert.Contains(t, store.persisted, "Document_3.pdf")
}

func TestRunStorageFailureIsPerRecord(t *testing.T) {
	store := &fakeStore{failFiles: map[string]bool{"INV-002.pdf": true}}
	o := NewOrchestrator(&fakeCompositor{}, store, nil, zap.NewNop())

	report := o.Run(context.Background(), requestFor(testRecords(3)))

	assert.Equal(t, 1, report.Failed())
	assert.False(t, report.Results[1].Success)
	assert.True(t, report.Results[2].Success)
}

func TestRunDelivery(t *testing.T) {
	spec := &DeliverySpec{
		RecipientField: "Email",
		Subject:        "Your document",
		Body:           "Attached.",
	}

	t.Run("delivers to records with a recipient", func(t *testing.T) {
		d := &fakeDeliverer{}
		o := NewOrchestrator(&fakeCompositor{}, &fakeStore{}, d, zap.NewNop())

		req := requestFor(testRecords(2))
		req.Delivery = spec
		report := o.Run(context.Background(), req)

		require.Len(t, d.messages, 2)
		assert.Equal(t, "user1@example.com", d.messages[0].Recipient)
		assert.Equal(t, "Your document", d.messages[0].Subject)
		assert.True(t, report.Results[0].DeliveryAttempted)
		assert.Empty(t, report.Results[0].DeliveryError)
	})

	t.Run("blank recipient skips delivery without failing the record", func(t *testing.T) {
		d := &fakeDeliverer{}
		o := NewOrchestrator(&fakeCompositor{}, &fakeStore{}, d, zap.NewNop())

		records := testRecords(1)
		records[0].Fields["Email"] = record.StringValue("")
		req := requestFor(records)
		req.Delivery = spec
		report := o.Run(context.Background(), req)

		assert.Empty(t, d.messages)
		assert.False(t, report.Results[0].DeliveryAttempted)
		assert.True(t, report.Results[0].Success, "generation outcome is still success")
	})

	t.Run("delivery failure does not fail generation", func(t *testing.T) {
		d := &fakeDeliverer{fail: true}
		o := NewOrchestrator(&fakeCompositor{}, &fakeStore{}, d, zap.NewNop())

		req := requestFor(testRecords(1))
		req.Delivery = spec
		report := o.Run(context.Background(), req)

		res := report.Results[0]
		assert.True(t, res.Success)
		assert.True(t, res.DeliveryAttempted)
		assert.NotEmpty(t, res.DeliveryError)
		assert.Equal(t, 0, report.Failed())
	})

	t.Run("nil spec disables delivery entirely", func(t *testing.T) {
		d := &fakeDeliverer{}
		o := NewOrchestrator(&fakeCompositor{}, &fakeStore{}, d, zap.NewNop())

		report := o.Run(context.Background(), requestFor(testRecords(2)))

		assert.Empty(t, d.messages)
		assert.False(t, report.Results[0].DeliveryAttempted)
	})
}

func TestRunProcessesSequentially(t *testing.T) {
	comp := &fakeCompositor{}
	o := NewOrchestrator(comp, &fakeStore{}, nil, zap.NewNop())

	o.Run(context.Background(), requestFor(testRecords(4)))

	assert.Equal(t, []string{"Sheet1!1", "Sheet1!2", "Sheet1!3", "Sheet1!4"}, comp.calls,
		"records are composed strictly in input order")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b\\c"))
	assert.Equal(t, "INV_2024_001", sanitizeFilename("INV:2024*001"))
}

func TestRunEmptyBatch(t *testing.T) {
	o := NewOrchestrator(&fakeCompositor{}, &fakeStore{}, nil, zap.NewNop())
	report := o.Run(context.Background(), requestFor(nil))

	assert.NotEmpty(t, report.RunID)
	assert.Zero(t, report.TotalProcessed)
	assert.Empty(t, report.Results)
	assert.False(t, report.CompletedAt.IsZero())
}
