package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

// noteRepository 知识笔记 SQLite 仓储实现
type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository 创建知识笔记仓储实例
func NewNoteRepository(db *sql.DB) knowledge.NoteRepository {
	if err := initNoteTable(db); err != nil {
		fmt.Printf("failed to init note table: %v\n", err)
	}
	return &noteRepository{db: db}
}

// initNoteTable 初始化知识笔记表
func initNoteTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_notes_org ON notes(org_id);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create notes index: %w", err)
	}
	return nil
}

// Save 保存知识笔记
func (r *noteRepository) Save(note *knowledge.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	query := `
		INSERT OR REPLACE INTO notes
		(id, org_id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		note.ID,
		note.OrgID,
		note.Title,
		note.Body,
		note.CreatedAt.UnixMilli(),
		note.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// FindByID 根据 ID 查找笔记
func (r *noteRepository) FindByID(id string) (*knowledge.Note, error) {
	query := `
		SELECT id, org_id, title, body, created_at, updated_at
		FROM notes
		WHERE id = ?`

	var note knowledge.Note
	var createdAt, updatedAt int64

	err := r.db.QueryRow(query, id).Scan(
		&note.ID,
		&note.OrgID,
		&note.Title,
		&note.Body,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	note.CreatedAt = time.UnixMilli(createdAt)
	note.UpdatedAt = time.UnixMilli(updatedAt)
	return &note, nil
}

// ListByOrg 列出组织的全部笔记，按创建顺序
func (r *noteRepository) ListByOrg(orgID string) ([]*knowledge.Note, error) {
	query := `
		SELECT id, org_id, title, body, created_at, updated_at
		FROM notes
		WHERE org_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*knowledge.Note
	for rows.Next() {
		var note knowledge.Note
		var createdAt, updatedAt int64

		if err := rows.Scan(
			&note.ID,
			&note.OrgID,
			&note.Title,
			&note.Body,
			&createdAt,
			&updatedAt,
		); err != nil {
			continue
		}

		note.CreatedAt = time.UnixMilli(createdAt)
		note.UpdatedAt = time.UnixMilli(updatedAt)
		notes = append(notes, &note)
	}
	return notes, nil
}

// Delete 删除笔记
func (r *noteRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// 编译时检查接口实现
var _ knowledge.NoteRepository = (*noteRepository)(nil)
