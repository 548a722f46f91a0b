package knowledge

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/insightloop/backend/internal/domain/knowledge"
)

// memoryNotes 内存笔记仓储
type memoryNotes struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
	fail  bool
}

func newMemoryNotes() *memoryNotes {
	return &memoryNotes{notes: make(map[string]*domain.Note)}
}

func (m *memoryNotes) Save(note *domain.Note) error {
	if m.fail {
		return fmt.Errorf("notes store down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if note.ID == "" {
		note.ID = fmt.Sprintf("n%d", len(m.notes)+1)
	}
	m.notes[note.ID] = note
	return nil
}

func (m *memoryNotes) FindByID(id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes[id], nil
}

func (m *memoryNotes) ListByOrg(orgID string) ([]*domain.Note, error) {
	if m.fail {
		return nil, fmt.Errorf("notes store down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Note
	for _, note := range m.notes {
		if note.OrgID == orgID {
			result = append(result, note)
		}
	}
	return result, nil
}

func (m *memoryNotes) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	return nil
}

// memoryTickets 内存工单仓储
type memoryTickets struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newMemoryTickets() *memoryTickets {
	return &memoryTickets{tickets: make(map[string]*domain.Ticket)}
}

func (m *memoryTickets) Save(ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("t%d", len(m.tickets)+1)
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketOpen
	}
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *memoryTickets) FindByID(id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickets[id], nil
}

func (m *memoryTickets) ListByOrg(orgID string) ([]*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Ticket
	for _, ticket := range m.tickets {
		if ticket.OrgID == orgID {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (m *memoryTickets) ListOpenByOrg(orgID string) ([]*domain.Ticket, error) {
	all, _ := m.ListByOrg(orgID)
	var open []*domain.Ticket
	for _, ticket := range all {
		if ticket.IsOpen() {
			open = append(open, ticket)
		}
	}
	return open, nil
}

func (m *memoryTickets) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tickets, id)
	return nil
}

// memoryProfiles 内存画像仓储
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.CompanyProfile
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]*domain.CompanyProfile)}
}

func (m *memoryProfiles) Save(profile *domain.CompanyProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.OrgID] = profile
	return nil
}

func (m *memoryProfiles) FindByOrg(orgID string) (*domain.CompanyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[orgID], nil
}

func (m *memoryProfiles) SaveFields(orgID string, fields map[string]string, listFields map[string][]string) error {
	return nil
}

// fakeIndex 记录写入的索引假实现
type fakeIndex struct {
	mu       sync.Mutex
	upserted []string
	deleted  []string
	fail     bool
}

func (f *fakeIndex) UpsertNotes(ctx context.Context, notes []*domain.Note, vectors [][]float32) error {
	if f.fail {
		return fmt.Errorf("vector store down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, note := range notes {
		f.upserted = append(f.upserted, note.ID)
	}
	return nil
}

func (f *fakeIndex) DeleteNote(ctx context.Context, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, noteID)
	return nil
}

// fakeEmbedder 固定向量的向量化假实现
type fakeEmbedder struct{ fail bool }

func (f *fakeEmbedder) EmbedTexts(texts []string) ([][]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding api down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func newTestService(notes *memoryNotes, index *fakeIndex) *Service {
	return NewService(notes, newMemoryTickets(), newMemoryProfiles(), index, &fakeEmbedder{})
}

func TestService_SaveNote_IndexesVector(t *testing.T) {
	notes := newMemoryNotes()
	index := &fakeIndex{}
	svc := newTestService(notes, index)

	note := &domain.Note{OrgID: "org-1", Title: "Churn definition", Body: "60 days"}
	require.NoError(t, svc.SaveNote(context.Background(), note))

	assert.NotEmpty(t, note.ID)
	assert.False(t, note.UpdatedAt.IsZero())
	assert.Equal(t, []string{note.ID}, index.upserted)
}

func TestService_SaveNote_IndexFailureIsSoft(t *testing.T) {
	notes := newMemoryNotes()
	index := &fakeIndex{fail: true}
	svc := newTestService(notes, index)

	note := &domain.Note{OrgID: "org-1", Title: "Churn", Body: "60 days"}
	// 向量索引失败不影响笔记保存
	require.NoError(t, svc.SaveNote(context.Background(), note))

	saved, err := notes.FindByID(note.ID)
	require.NoError(t, err)
	assert.NotNil(t, saved)
}

func TestService_DeleteNote_RemovesVector(t *testing.T) {
	notes := newMemoryNotes()
	index := &fakeIndex{}
	svc := newTestService(notes, index)

	note := &domain.Note{OrgID: "org-1", Title: "Old", Body: "stale"}
	require.NoError(t, svc.SaveNote(context.Background(), note))
	require.NoError(t, svc.DeleteNote(context.Background(), note.ID))

	assert.Equal(t, []string{note.ID}, index.deleted)
}

func TestService_Snapshot(t *testing.T) {
	notes := newMemoryNotes()
	tickets := newMemoryTickets()
	profiles := newMemoryProfiles()
	svc := NewService(notes, tickets, profiles, &fakeIndex{}, &fakeEmbedder{})

	require.NoError(t, notes.Save(&domain.Note{ID: "n1", OrgID: "org-1", Title: "a", Body: "b"}))
	require.NoError(t, tickets.Save(&domain.Ticket{ID: "t1", OrgID: "org-1", Title: "open", Status: domain.TicketOpen}))
	require.NoError(t, tickets.Save(&domain.Ticket{ID: "t2", OrgID: "org-1", Title: "closed", Status: domain.TicketClosed}))
	require.NoError(t, profiles.Save(&domain.CompanyProfile{OrgID: "org-1", CompanyName: "Acme"}))

	snap, err := svc.Snapshot(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Acme", snap.Profile.CompanyName)
	assert.Len(t, snap.Notes, 1)
	require.Len(t, snap.OpenTickets, 1)
	assert.Equal(t, "open", snap.OpenTickets[0].Title)
}

func TestService_Snapshot_DegradesOnFailure(t *testing.T) {
	notes := newMemoryNotes()
	notes.fail = true
	svc := NewService(notes, newMemoryTickets(), newMemoryProfiles(), &fakeIndex{}, &fakeEmbedder{})

	// 单个来源失败时快照仍可用，对应部分留空
	snap, err := svc.Snapshot(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Notes)
}

func TestService_CloseTicket(t *testing.T) {
	tickets := newMemoryTickets()
	svc := NewService(newMemoryNotes(), tickets, newMemoryProfiles(), &fakeIndex{}, &fakeEmbedder{})

	ticket := &domain.Ticket{OrgID: "org-1", Title: "fix dashboard"}
	require.NoError(t, svc.SaveTicket(ticket))
	require.NoError(t, svc.CloseTicket(ticket.ID))

	found, err := tickets.FindByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClosed, found.Status)

	assert.Error(t, svc.CloseTicket("missing"))
}
