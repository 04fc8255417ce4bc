package moderation

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/notify"
)

// memPostings is an in-memory PostingStore with the same conditional-update rules as the gorm one.
type memPostings struct {
	mu     sync.Mutex
	rows   map[uint]*models.Posting
	nextID uint
	clock  time.Time
}

func newMemPostings() *memPostings {
	return &memPostings{rows: map[uint]*models.Posting{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memPostings) Create(_ context.Context, p *models.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	p.ID = m.nextID
	p.CreatedAt = m.clock
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPostings) Get(_ context.Context, id uint) (*models.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("mem.Get", "posting %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memPostings) list(keep func(p *models.Posting) bool) []models.Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Posting
	for _, p := range m.rows {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memPostings) ListByOwner(_ context.Context, ownerID uint) ([]models.Posting, error) {
	return m.list(func(p *models.Posting) bool { return p.OwnerID == ownerID && !p.Deleted() }), nil
}

func (m *memPostings) ListByStatus(_ context.Context, status models.Status) ([]models.Posting, error) {
	return m.list(func(p *models.Posting) bool { return p.Status == status && p.RemovedAt == nil }), nil
}

func (m *memPostings) ListApproved(_ context.Context, kind models.Kind, f models.PostingFilter) ([]models.Posting, error) {
	term := strings.ToLower(f.Search)
	return m.list(func(p *models.Posting) bool {
		if p.Kind != kind || p.Status != models.StatusApproved || p.RemovedAt != nil {
			return false
		}
		if f.Subcategory != "" && (p.Subcategory == nil || *p.Subcategory != f.Subcategory) {
			return false
		}
		return term == "" || strings.Contains(strings.ToLower(p.Title), term) || strings.Contains(strings.ToLower(p.Description), term)
	}), nil
}

func (m *memPostings) UpdateStatus(_ context.Context, id uint, from, to models.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Status != from || p.RemovedAt != nil {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *memPostings) MarkDeleted(_ context.Context, id uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Deleted() {
		return false, nil
	}
	p.Status = models.StatusDeleted
	p.RemovedAt = &at
	return true, nil
}

func (m *memPostings) UpdatePending(_ context.Context, p *models.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[p.ID]
	if !ok || cur.Status != models.StatusPending {
		return false, nil
	}
	cp := *p
	cp.Status = cur.Status
	m.rows[p.ID] = &cp
	return true, nil
}

// setStatus forces a row into a state, bypassing the engine.
func (m *memPostings) setStatus(id uint, s models.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].Status = s
}

type memUsers map[uint]*models.User

func (m memUsers) Get(_ context.Context, id uint) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, apperr.NotFound("mem.GetUser", "user %d not found", id)
	}
	return u, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notify.Message
	result notify.Status
}

func (r *recordingNotifier) Dispatch(_ context.Context, msg notify.Message) notify.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	if r.result == "" {
		return notify.Delivery{Status: notify.StatusSent}
	}
	return notify.Delivery{Status: r.result}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }
