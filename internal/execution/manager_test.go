package execution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lexdesk/internal/engine"
	"lexdesk/internal/fieldtype"
	"lexdesk/internal/identity"
	"lexdesk/internal/models"
)

var errNotFound = errors.New("not found")

type fakeTemplates struct {
	byID map[uuid.UUID]*models.TemplateDefinition
}

func (f *fakeTemplates) FindWithFields(_ context.Context, id uuid.UUID) (*models.TemplateDefinition, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return t, nil
}

// fakeRecords mimics the store: the counter increment and insert happen
// under one lock, like the single transaction in PostgreSQL.
type fakeRecords struct {
	mu       sync.Mutex
	counters map[uuid.UUID]int64
	records  []*models.ExecutionRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{counters: make(map[uuid.UUID]int64)}
}

func (f *fakeRecords) CreateWithCounter(_ context.Context, templateID uuid.UUID, build func(int64) (*models.ExecutionRecord, error)) (*models.ExecutionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.counters[templateID] + 1
	rec, err := build(seq)
	if err != nil {
		return nil, err
	}
	f.counters[templateID] = seq
	f.records = append(f.records, rec)
	return rec, nil
}

type fakeDispatcher struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (f *fakeDispatcher) Enqueue(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return f.err
}

type fakeAutoFill map[string]any

func (f fakeAutoFill) Lookup(context.Context, *uuid.UUID, *uuid.UUID) (map[string]any, error) {
	return f, nil
}

type fakeArchiver struct{ archived []uuid.UUID }

func (f *fakeArchiver) ArchiveDocument(_ context.Context, rec *models.ExecutionRecord) error {
	f.archived = append(f.archived, rec.ID)
	return errors.New("bucket unavailable")
}

func greeting() *models.TemplateDefinition {
	return &models.TemplateDefinition{
		ID:      uuid.New(),
		Name:    "Greeting",
		Body:    "Hello {{client_name}}, today is {{data_hoje}}. Nº {{numero_sequencial}} by {{usuario_atual}}",
		Version: 1,
		Fields: []models.FieldDefinition{
			{Key: "client_name", Label: "Nome do Cliente", Type: models.FieldTypeText, IsRequired: true},
		},
	}
}

func newManager(t *testing.T, tmpl *models.TemplateDefinition) (*Manager, *fakeRecords) {
	t.Helper()
	recs := newFakeRecords()
	m := New(&fakeTemplates{byID: map[uuid.UUID]*models.TemplateDefinition{tmpl.ID: tmpl}}, recs, engine.New(nil), "Silva Advogados", time.UTC)
	m.SetClock(func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) })
	return m, recs
}

func userCtx() context.Context {
	return identity.WithUser(context.Background(), identity.User{ID: "u-1", Name: "Ana"})
}

func TestExecuteRendersAndPersists(t *testing.T) {
	tmpl := greeting()
	m, recs := newManager(t, tmpl)

	rec, err := m.Execute(userCtx(), Request{TemplateID: tmpl.ID, Data: map[string]any{"client_name": "Maria"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if want := "Hello Maria, today is 18/10/2026. Nº 1 by Ana"; rec.GeneratedContent != want {
		t.Errorf("GeneratedContent = %q, want %q", rec.GeneratedContent, want)
	}
	if rec.Sequence != 1 || rec.ExecutedBy != "u-1" || rec.TemplateID != tmpl.ID {
		t.Errorf("unexpected record metadata: %+v", rec)
	}
	if rec.WebhookStatus != models.WebhookStatusNone || rec.WebhookURL != "" {
		t.Errorf("no endpoint configured, got status %q url %q", rec.WebhookStatus, rec.WebhookURL)
	}
	if diff := cmp.Diff(map[string]any{"client_name": "Maria"}, rec.FilledData); diff != "" {
		t.Errorf("FilledData mismatch (-want +got):\n%s", diff)
	}
	if len(recs.records) != 1 {
		t.Errorf("records written = %d, want 1", len(recs.records))
	}
}

func TestExecuteValidationFailureWritesNothing(t *testing.T) {
	tmpl := greeting()
	m, recs := newManager(t, tmpl)
	d := &fakeDispatcher{}
	m.SetDispatcher(d)

	_, err := m.Execute(userCtx(), Request{TemplateID: tmpl.ID, Data: map[string]any{}})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []fieldtype.FieldError{{Field: "client_name", Label: "Nome do Cliente", Message: "Nome do Cliente is required"}}
	if diff := cmp.Diff(want, verr.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if verr.Error() != "validation failed: Nome do Cliente is required" {
		t.Errorf("Error() = %q", verr.Error())
	}
	if len(recs.records) != 0 || recs.counters[tmpl.ID] != 0 {
		t.Error("validation failure must not create a record or bump the counter")
	}
	if len(d.ids) != 0 {
		t.Error("validation failure must not enqueue delivery")
	}
}

func TestExecuteSchedulesDelivery(t *testing.T) {
	tmpl := greeting()
	tmpl.WebhookURL = " https://hooks.example.com/petitions "
	tmpl.WebhookEnabled = true
	m, _ := newManager(t, tmpl)

	d := &fakeDispatcher{err: errors.New("queue down")}
	m.SetDispatcher(d)
	a := &fakeArchiver{}
	m.SetArchiver(a)

	rec, err := m.Execute(userCtx(), Request{TemplateID: tmpl.ID, Data: map[string]any{"client_name": "Maria"}})
	if err != nil {
		t.Fatalf("delivery and archive failures must not fail the execution: %v", err)
	}
	if rec.WebhookStatus != models.WebhookStatusPending {
		t.Errorf("status = %q, want pending", rec.WebhookStatus)
	}
	if rec.WebhookURL != "https://hooks.example.com/petitions" {
		t.Errorf("WebhookURL = %q", rec.WebhookURL)
	}
	if len(d.ids) != 1 || d.ids[0] != rec.ID {
		t.Errorf("enqueued %v, want [%s]", d.ids, rec.ID)
	}
	if len(a.archived) != 1 {
		t.Errorf("archived %d documents, want 1", len(a.archived))
	}
}

func TestExecuteDisabledWebhook(t *testing.T) {
	tmpl := greeting()
	tmpl.WebhookURL = "https://hooks.example.com"
	tmpl.WebhookEnabled = false
	m, _ := newManager(t, tmpl)
	d := &fakeDispatcher{}
	m.SetDispatcher(d)

	rec, err := m.Execute(userCtx(), Request{TemplateID: tmpl.ID, Data: map[string]any{"client_name": "Maria"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.WebhookStatus != models.WebhookStatusNone || len(d.ids) != 0 {
		t.Errorf("disabled webhook should not deliver, status %q", rec.WebhookStatus)
	}
}

func TestExecuteAutoFillAndDefaults(t *testing.T) {
	tmpl := &models.TemplateDefinition{
		ID:   uuid.New(),
		Body: "{{client_name}} - {{comarca}} - {{aceite}}",
		Fields: []models.FieldDefinition{
			{Key: "client_name", Type: models.FieldTypeText, IsRequired: true},
			{Key: "comarca", Type: models.FieldTypeText, DefaultValue: "São Paulo"},
			{Key: "aceite", Type: models.FieldTypeCheckbox, DefaultValue: "true"},
		},
	}
	m, _ := newManager(t, tmpl)
	m.SetAutoFill(fakeAutoFill{"client_name": "Maria (auto)"})

	clientID := uuid.New()
	rec, err := m.Execute(userCtx(), Request{
		TemplateID: tmpl.ID,
		Data:       map[string]any{"aceite": false},
		ClientID:   &clientID,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if want := "Maria (auto) - São Paulo - Não"; rec.GeneratedContent != want {
		t.Errorf("GeneratedContent = %q, want %q", rec.GeneratedContent, want)
	}
	if rec.ClientID == nil || *rec.ClientID != clientID {
		t.Error("client link should be kept on the record")
	}
}

func TestExecuteUnknownTemplate(t *testing.T) {
	m, _ := newManager(t, greeting())
	_, err := m.Execute(userCtx(), Request{TemplateID: uuid.New()})
	if !errors.Is(err, errNotFound) {
		t.Errorf("expected wrapped not-found error, got %v", err)
	}
}

// TestExecuteConcurrentCounter checks that concurrent executions of one
// template each receive a distinct sequence and none is lost.
func TestExecuteConcurrentCounter(t *testing.T) {
	tmpl := greeting()
	m, recs := newManager(t, tmpl)

	const n = 50
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := m.Execute(userCtx(), Request{TemplateID: tmpl.ID, Data: map[string]any{"client_name": "Maria"}})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if recs.counters[tmpl.ID] != n {
		t.Errorf("counter = %d, want %d", recs.counters[tmpl.ID], n)
	}
	seen := make(map[int64]bool, n)
	for _, r := range recs.records {
		if seen[r.Sequence] {
			t.Errorf("sequence %d issued twice", r.Sequence)
		}
		seen[r.Sequence] = true
	}
}

func TestPreview(t *testing.T) {
	tmpl := greeting()
	tmpl.ExecutionCount = 41
	m, recs := newManager(t, tmpl)

	res, err := m.Preview(userCtx(), Request{TemplateID: tmpl.ID})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if want := "Hello [[MISSING: Nome do Cliente]], today is 18/10/2026. Nº 42 by Ana"; res.Render.Rendered != want {
		t.Errorf("Rendered = %q, want %q", res.Render.Rendered, want)
	}
	if res.Valid() || len(res.Errors) != 1 {
		t.Errorf("expected one non-blocking error, got %v", res.Errors)
	}
	if diff := cmp.Diff([]string{"data_hoje", "numero_sequencial", "usuario_atual"}, res.Analysis.System); diff != "" {
		t.Errorf("System mismatch (-want +got):\n%s", diff)
	}
	if len(recs.records) != 0 {
		t.Error("preview must not write records")
	}
}
