package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/insightloop/backend/internal/domain/assistant"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "storage_test_*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)

	// 启用 WAL 模式
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}
	return db, cleanup
}

func TestSessionRepository_SaveAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(db)

	sess := assistant.NewSession("", "user-1", "org-1")
	sess.ActiveFlow = assistant.FlowProfileSetup
	sess.StepIndex = 2
	sess.Collected["mission"] = assistant.FieldValue{Text: "Help retailers understand their data"}
	sess.Collected["data_sources"] = assistant.FieldValue{Items: []string{"Salesforce", "Stripe"}}

	err := repo.Save(sess)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID, "保存后应自动生成 ID")

	found, err := repo.FindByID(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "user-1", found.UserID)
	assert.Equal(t, assistant.FlowProfileSetup, found.ActiveFlow)
	assert.Equal(t, 2, found.StepIndex)
	assert.Equal(t, "Help retailers understand their data", found.Collected["mission"].Text)
	assert.Equal(t, []string{"Salesforce", "Stripe"}, found.Collected["data_sources"].Items)
}

func TestSessionRepository_FindByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(db)

	found, err := repo.FindByID("not-exist")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSessionRepository_FindByID_LoadsTurns(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	sessRepo := NewSessionRepository(db)
	turnRepo := NewTurnRepository(db)

	sess := assistant.NewSession("sess-1", "user-1", "org-1")
	sess.AppendTurn(assistant.RoleUser, "hello")
	sess.AppendTurn(assistant.RoleAssistant, "hi, how can I help?")
	require.NoError(t, sessRepo.Save(sess))

	for _, turn := range sess.Turns {
		require.NoError(t, turnRepo.Append(sess.ID, turn))
	}

	found, err := sessRepo.FindByID("sess-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Turns, 2)
	assert.Equal(t, assistant.RoleUser, found.Turns[0].Role)
	assert.Equal(t, "hi, how can I help?", found.Turns[1].Content)
}

func TestSessionRepository_ListByUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(db)

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.Save(assistant.NewSession(id, "user-1", "org-1")))
	}
	require.NoError(t, repo.Save(assistant.NewSession("s3", "user-2", "org-1")))

	sessions, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessionRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	sessRepo := NewSessionRepository(db)
	turnRepo := NewTurnRepository(db)

	sess := assistant.NewSession("to-delete", "user-1", "org-1")
	sess.AppendTurn(assistant.RoleUser, "bye")
	require.NoError(t, sessRepo.Save(sess))
	require.NoError(t, turnRepo.Append(sess.ID, sess.Turns[0]))

	require.NoError(t, sessRepo.Delete("to-delete"))

	found, err := sessRepo.FindByID("to-delete")
	require.NoError(t, err)
	assert.Nil(t, found)

	turns, err := turnRepo.ListBySession("to-delete")
	require.NoError(t, err)
	assert.Empty(t, turns, "删除会话应连带删除对话记录")
}
