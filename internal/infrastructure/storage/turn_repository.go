package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/insightloop/backend/internal/domain/assistant"
)

// turnRepository 对话记录 SQLite 仓储实现
type turnRepository struct {
	db *sql.DB
}

// NewTurnRepository 创建对话记录仓储实例
func NewTurnRepository(db *sql.DB) assistant.TurnRepository {
	if err := initTurnTable(db); err != nil {
		fmt.Printf("failed to init turn table: %v\n", err)
	}
	return &turnRepository{db: db}
}

// initTurnTable 初始化对话记录表
func initTurnTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create turns table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create turns index: %w", err)
	}
	return nil
}

// Append 追加一条对话记录
func (r *turnRepository) Append(sessionID string, turn assistant.Turn) error {
	query := `
		INSERT INTO turns (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		sessionID,
		string(turn.Role),
		turn.Content,
		turn.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// ListBySession 按写入顺序列出会话的对话记录
func (r *turnRepository) ListBySession(sessionID string) ([]assistant.Turn, error) {
	return listTurns(r.db, sessionID)
}

// listTurns 会话仓储加载会话时复用同一查询
func listTurns(db *sql.DB, sessionID string) ([]assistant.Turn, error) {
	query := `
		SELECT role, content, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY id ASC`

	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []assistant.Turn
	for rows.Next() {
		var turn assistant.Turn
		var role string
		var createdAt int64

		if err := rows.Scan(&role, &turn.Content, &createdAt); err != nil {
			continue
		}
		turn.Role = assistant.Role(role)
		turn.CreatedAt = time.UnixMilli(createdAt)
		turns = append(turns, turn)
	}
	return turns, nil
}

// 编译时检查接口实现
var _ assistant.TurnRepository = (*turnRepository)(nil)
