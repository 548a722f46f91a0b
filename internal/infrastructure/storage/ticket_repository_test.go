package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

func TestTicketRepository_SaveAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTicketRepository(db)

	ticket := &knowledge.Ticket{
		OrgID:       "org-1",
		Title:       "Quarterly revenue dashboard is empty",
		Description: "No data after the Stripe connector re-auth",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Save(ticket))
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, knowledge.TicketOpen, ticket.Status, "缺省状态应为 open")

	found, err := repo.FindByID(ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ticket.Title, found.Title)
	assert.True(t, found.IsOpen())

	notFound, err := repo.FindByID("not-exist")
	require.NoError(t, err)
	assert.Nil(t, notFound)
}

func TestTicketRepository_ListOpenByOrg(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTicketRepository(db)

	now := time.Now()
	tickets := []*knowledge.Ticket{
		{ID: "t1", OrgID: "org-1", Title: "open one", Description: "", Status: knowledge.TicketOpen, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
		{ID: "t2", OrgID: "org-1", Title: "closed one", Description: "", Status: knowledge.TicketClosed, CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
		{ID: "t3", OrgID: "org-1", Title: "open two", Description: "", Status: knowledge.TicketOpen, CreatedAt: now, UpdatedAt: now},
		{ID: "t4", OrgID: "org-2", Title: "other org", Description: "", Status: knowledge.TicketOpen, CreatedAt: now, UpdatedAt: now},
	}
	for _, ticket := range tickets {
		require.NoError(t, repo.Save(ticket))
	}

	open, err := repo.ListOpenByOrg("org-1")
	require.NoError(t, err)
	require.Len(t, open, 2)
	// 按创建时间升序
	assert.Equal(t, "open one", open[0].Title)
	assert.Equal(t, "open two", open[1].Title)

	all, err := repo.ListByOrg("org-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNoteRepository_SaveListDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewNoteRepository(db)

	note := &knowledge.Note{
		OrgID:     "org-1",
		Title:     "Churn definition",
		Body:      "A customer counts as churned after 60 days without a paid invoice.",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Save(note))
	assert.NotEmpty(t, note.ID)

	notes, err := repo.ListByOrg("org-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Churn definition", notes[0].Title)

	require.NoError(t, repo.Delete(note.ID))
	found, err := repo.FindByID(note.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
