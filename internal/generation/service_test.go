package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/batch"
	"github.com/oakrise/docstamp/internal/configstore"
	"github.com/oakrise/docstamp/internal/datasource"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
)

type fakeConfigs struct {
	sets map[string]*mapping.MappingSet
}

func (f *fakeConfigs) Save(ctx context.Context, set *mapping.MappingSet) error { return nil }
func (f *fakeConfigs) List(ctx context.Context) ([]configstore.Summary, error) { return nil, nil }
func (f *fakeConfigs) Delete(ctx context.Context, name string) error           { return nil }
func (f *fakeConfigs) Load(ctx context.Context, name string) (*mapping.MappingSet, error) {
	set, ok := f.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", configstore.ErrNotFound, name)
	}
	return set, nil
}

type fakeDocs struct {
	templates map[string][]byte
}

func (f *fakeDocs) FetchTemplate(ctx context.Context, id string) ([]byte, error) {
	data, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrTemplateNotFound, id)
	}
	return data, nil
}
func (f *fakeDocs) ListTemplates(ctx context.Context) ([]docstore.TemplateInfo, error) {
	return nil, nil
}
func (f *fakeDocs) Persist(ctx context.Context, folderID, filename string, data []byte) (docstore.FileRef, error) {
	return docstore.FileRef{ID: filename}, nil
}
func (f *fakeDocs) ListFolders(ctx context.Context) ([]docstore.FolderInfo, error) { return nil, nil }
func (f *fakeDocs) CreateFolder(ctx context.Context, name, parentID string) (docstore.FolderInfo, error) {
	return docstore.FolderInfo{}, nil
}

type fakeSource struct {
	records []record.Record
	err     error
}

func (f *fakeSource) ListSources(ctx context.Context) ([]datasource.SourceInfo, error) {
	return nil, nil
}
func (f *fakeSource) Describe(ctx context.Context, id string) (*datasource.SourceDetail, error) {
	return nil, nil
}
func (f *fakeSource) FetchRecords(ctx context.Context, sourceID, sheet string, rows []int) ([]record.Record, error) {
	return f.records, f.err
}

type passCompositor struct{}

func (passCompositor) Compose(templateBytes []byte, rec record.Record, set *mapping.MappingSet) ([]byte, error) {
	return []byte("ok"), nil
}

func testService(configs *fakeConfigs, docs *fakeDocs, source *fakeSource) *Service {
	orch := batch.NewOrchestrator(passCompositor{}, docs, nil, zap.NewNop())
	return NewService(configs, docs, source, orch, DeliveryDefaults{
		Subject: "default subject",
		Body:    "default body",
	}, zap.NewNop())
}

func validSet() *mapping.MappingSet {
	return &mapping.MappingSet{
		Name:          "invoices",
		PDFTemplateID: "invoice.pdf",
	}
}

func TestGenerateFatalWhenConfigMissing(t *testing.T) {
	svc := testService(
		&fakeConfigs{sets: map[string]*mapping.MappingSet{}},
		&fakeDocs{},
		&fakeSource{},
	)

	_, err := svc.Generate(context.Background(), RunRequest{ConfigName: "ghost"})
	assert.ErrorIs(t, err, configstore.ErrNotFound, "batch must not start without a configuration")
}

func TestGenerateFatalWhenConfigInvalid(t *testing.T) {
	bad := validSet()
	bad.Mappings = []mapping.FieldMapping{{Field: ""}}

	svc := testService(
		&fakeConfigs{sets: map[string]*mapping.MappingSet{"invoices": bad}},
		&fakeDocs{templates: map[string][]byte{"invoice.pdf": []byte("t")}},
		&fakeSource{},
	)

	_, err := svc.Generate(context.Background(), RunRequest{ConfigName: "invoices"})
	assert.ErrorIs(t, err, mapping.ErrInvalidMapping)
}

func TestGenerateFatalWhenTemplateMissing(t *testing.T) {
	svc := testService(
		&fakeConfigs{sets: map[string]*mapping.MappingSet{"invoices": validSet()}},
		&fakeDocs{templates: map[string][]byte{}},
		&fakeSource{},
	)

	_, err := svc.Generate(context.Background(), RunRequest{ConfigName: "invoices"})
	assert.ErrorIs(t, err, docstore.ErrTemplateNotFound)
}

func TestGenerateFatalWhenRecordsUnavailable(t *testing.T) {
	svc := testService(
		&fakeConfigs{sets: map[string]*mapping.MappingSet{"invoices": validSet()}},
		&fakeDocs{templates: map[string][]byte{"invoice.pdf": []byte("t")}},
		&fakeSource{err: errors.New("sheet not found")},
	)

	_, err := svc.Generate(context.Background(), RunRequest{ConfigName: "invoices"})
	require.Error(t, err)
}

func TestGenerateRunsBatch(t *testing.T) {
	records := []record.Record{
		{RowID: "Q1!1", Fields: map[string]record.Value{"Invoice": record.StringValue("INV-001")}},
		{RowID: "Q1!2", Fields: map[string]record.Value{}},
	}

	svc := testService(
		&fakeConfigs{sets: map[string]*mapping.MappingSet{"invoices": validSet()}},
		&fakeDocs{templates: map[string][]byte{"invoice.pdf": []byte("t")}},
		&fakeSource{records: records},
	)

	report, err := svc.Generate(context.Background(), RunRequest{
		ConfigName:          "invoices",
		SourceID:            "invoices.xlsx",
		Sheet:               "Q1",
		DocumentNumberField: "Invoice",
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "INV-001", report.Results[0].DocumentNumber)
	assert.Equal(t, "Document_2", report.Results[1].DocumentNumber)
	assert.Equal(t, 2, report.Succeeded())
}

func TestGenerateAppliesDeliveryDefaults(t *testing.T) {
	set := validSet()
	set.Delivery = mapping.DeliverySettings{
		Enabled:        true,
		RecipientField: "Email",
	}

	configs := &fakeConfigs{sets: map[string]*mapping.MappingSet{"invoices": set}}
	docs := &fakeDocs{templates: map[string][]byte{"invoice.pdf": []byte("t")}}
	source := &fakeSource{records: []record.Record{
		{RowID: "Q1!1", Fields: map[string]record.Value{
			"Email": record.StringValue("ada@example.com"),
		}},
	}}

	// A nil deliverer with an active spec records the attempt and the
	// missing channel, without failing generation.
	svc := testService(configs, docs, source)
	report, err := svc.Generate(context.Background(), RunRequest{ConfigName: "invoices"})
	require.NoError(t, err)

	res := report.Results[0]
	assert.True(t, res.Success)
	assert.True(t, res.DeliveryAttempted)
	assert.NotEmpty(t, res.DeliveryError)
}
