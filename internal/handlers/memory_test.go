package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexdesk/internal/delivery"
	"lexdesk/internal/models"
	"lexdesk/internal/store"
)

// memoryStore is an in-memory stand-in for the PostgreSQL stores. It
// satisfies every repository the API and the execution manager need.
type memoryStore struct {
	mu         sync.Mutex
	templates  map[uuid.UUID]*models.TemplateDefinition
	executions map[uuid.UUID]*models.ExecutionRecord
	order      []uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		templates:  make(map[uuid.UUID]*models.TemplateDefinition),
		executions: make(map[uuid.UUID]*models.ExecutionRecord),
	}
}

func cloneTemplate(t *models.TemplateDefinition) *models.TemplateDefinition {
	c := *t
	c.Fields = append([]models.FieldDefinition(nil), t.Fields...)
	return &c
}

func (m *memoryStore) List(context.Context) ([]models.TemplateDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TemplateDefinition, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, *cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) FindWithFields(_ context.Context, id uuid.UUID) (*models.TemplateDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTemplate(t), nil
}

func (m *memoryStore) Create(_ context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneTemplate(t)
	c.ID = uuid.New()
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	for i := range c.Fields {
		c.Fields[i].ID = uuid.New()
		c.Fields[i].TemplateID = c.ID
	}
	m.templates[c.ID] = c
	return cloneTemplate(c), nil
}

func (m *memoryStore) Update(_ context.Context, t *models.TemplateDefinition) (*models.TemplateDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.templates[t.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneTemplate(t)
	c.Fields = cur.Fields
	c.ExecutionCount = cur.ExecutionCount
	c.Version = cur.Version + 1
	m.templates[c.ID] = c
	return cloneTemplate(c), nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

// fieldRepo exposes the field methods of memoryStore under the
// FieldRepository method names.
type fieldRepo struct{ m *memoryStore }

func (r fieldRepo) Create(_ context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[f.TemplateID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *f
	c.ID = uuid.New()
	t.Fields = append(t.Fields, c)
	t.Version++
	return &c, nil
}

func (r fieldRepo) Update(_ context.Context, f *models.FieldDefinition) (*models.FieldDefinition, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[f.TemplateID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for i := range t.Fields {
		if t.Fields[i].ID == f.ID {
			t.Fields[i] = *f
			t.Version++
			c := *f
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r fieldRepo) Delete(_ context.Context, templateID, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[templateID]
	if !ok {
		return store.ErrNotFound
	}
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)
			t.Version++
			return nil
		}
	}
	return store.ErrNotFound
}

// executionRepo exposes the execution methods of memoryStore.
type executionRepo struct{ m *memoryStore }

func (r executionRepo) CreateWithCounter(_ context.Context, templateID uuid.UUID, build func(int64) (*models.ExecutionRecord, error)) (*models.ExecutionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[templateID]
	if !ok {
		return nil, store.ErrNotFound
	}
	rec, err := build(t.ExecutionCount + 1)
	if err != nil {
		return nil, err
	}
	t.ExecutionCount++
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	r.m.executions[rec.ID] = rec
	r.m.order = append(r.m.order, rec.ID)
	c := *rec
	return &c, nil
}

func (r executionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.ExecutionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.executions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *rec
	return &c, nil
}

func (r executionRepo) ListByTemplate(_ context.Context, templateID uuid.UUID, limit, offset int) ([]models.ExecutionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []models.ExecutionRecord
	for i := len(r.m.order) - 1; i >= 0; i-- {
		rec := r.m.executions[r.m.order[i]]
		if rec.TemplateID == templateID {
			all = append(all, *rec)
		}
	}
	out := []models.ExecutionRecord{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (r executionRepo) Stats(_ context.Context, templateID uuid.UUID) (*models.DeliveryStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := &models.DeliveryStats{}
	for _, rec := range r.m.executions {
		if rec.TemplateID != templateID {
			continue
		}
		s.Total++
		switch rec.WebhookStatus {
		case models.WebhookStatusNone:
			s.None++
		case models.WebhookStatusPending:
			s.Pending++
		case models.WebhookStatusSent:
			s.Sent++
		case models.WebhookStatusCompleted:
			s.Completed++
		case models.WebhookStatusFailed:
			s.Failed++
		}
	}
	s.ComputeSuccessRate()
	return s, nil
}

func (r executionRepo) setStatus(id uuid.UUID, status models.WebhookStatus) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.executions[id].WebhookStatus = status
}

// fakeRetrier applies the retry rules without a transport: failed records
// complete, anything else is rejected.
type fakeRetrier struct{ repo executionRepo }

func (f fakeRetrier) Retry(ctx context.Context, id uuid.UUID) (*models.ExecutionRecord, error) {
	rec, err := f.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !delivery.Retryable(rec.WebhookStatus) {
		return nil, fmt.Errorf("%w: cannot retry delivery in state %s", delivery.ErrInvalidTransition, rec.WebhookStatus)
	}
	f.repo.setStatus(id, models.WebhookStatusCompleted)
	rec.WebhookStatus = models.WebhookStatusCompleted
	rec.RetryCount++
	return rec, nil
}

type fakeDocuments struct {
	mu    sync.Mutex
	pages map[uuid.UUID][]byte
	gets  int
}

func (f *fakeDocuments) Get(_ context.Context, id uuid.UUID) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	p, ok := f.pages[id]
	return p, ok
}

func (f *fakeDocuments) Set(_ context.Context, id uuid.UUID, html []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages == nil {
		f.pages = make(map[uuid.UUID][]byte)
	}
	f.pages[id] = html
}

type fakeArchive struct{}

func (fakeArchive) PresignedURL(_ context.Context, id uuid.UUID, _ time.Duration) (string, error) {
	return "https://s3.example.com/lexdesk-documents/executions/" + id.String() + ".md?X-Amz-Signature=abc", nil
}

type fakeParties struct {
	clients   []models.Client
	processes []models.Process
}

type clientRepo struct{ p *fakeParties }

func (r clientRepo) List(context.Context) ([]models.Client, error) { return r.p.clients, nil }

func (r clientRepo) Create(_ context.Context, c *models.Client) (*models.Client, error) {
	c.ID = uuid.New()
	r.p.clients = append(r.p.clients, *c)
	return c, nil
}

type processRepo struct{ p *fakeParties }

func (r processRepo) List(context.Context) ([]models.Process, error) { return r.p.processes, nil }

func (r processRepo) Create(_ context.Context, p *models.Process) (*models.Process, error) {
	p.ID = uuid.New()
	r.p.processes = append(r.p.processes, *p)
	return p, nil
}
