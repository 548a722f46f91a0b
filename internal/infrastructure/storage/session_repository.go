package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insightloop/backend/internal/domain/assistant"
)

// sessionRepository 会话 SQLite 仓储实现
type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository 创建会话仓储实例
func NewSessionRepository(db *sql.DB) assistant.SessionRepository {
	if err := initSessionTables(db); err != nil {
		fmt.Printf("failed to init session tables: %v\n", err)
	}
	return &sessionRepository{db: db}
}

// initSessionTables 初始化会话相关表
func initSessionTables(db *sql.DB) error {
	createSessionsSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		org_id TEXT NOT NULL,
		active_flow TEXT NOT NULL DEFAULT '',
		step_index INTEGER NOT NULL DEFAULT 0,
		collected TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createSessionsSQL); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_org ON sessions(org_id);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create sessions indexes: %w", err)
	}

	return initTurnTable(db)
}

// Save 保存会话（不含对话记录，记录由 TurnRepository 维护）
func (r *sessionRepository) Save(session *assistant.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	collectedJSON, err := json.Marshal(session.Collected)
	if err != nil {
		return fmt.Errorf("failed to marshal collected data: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO sessions
		(id, user_id, org_id, active_flow, step_index, collected, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		session.ID,
		session.UserID,
		session.OrgID,
		string(session.ActiveFlow),
		session.StepIndex,
		string(collectedJSON),
		session.CreatedAt.UnixMilli(),
		session.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID 根据 ID 查找会话，含对话记录
func (r *sessionRepository) FindByID(id string) (*assistant.Session, error) {
	query := `
		SELECT id, user_id, org_id, active_flow, step_index, collected, created_at, updated_at
		FROM sessions
		WHERE id = ?`

	session, err := r.scanSession(r.db.QueryRow(query, id))
	if err != nil || session == nil {
		return session, err
	}

	turns, err := listTurns(r.db, id)
	if err != nil {
		return nil, err
	}
	session.Turns = turns
	return session, nil
}

// ListByUser 列出用户的会话，按更新时间倒序
func (r *sessionRepository) ListByUser(userID string) ([]*assistant.Session, error) {
	query := `
		SELECT id, user_id, org_id, active_flow, step_index, collected, created_at, updated_at
		FROM sessions
		WHERE user_id = ?
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*assistant.Session
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Delete 删除会话与其全部对话记录
func (r *sessionRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session turns: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// scanner 兼容 QueryRow 和 Rows 的扫描接口
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *sessionRepository) scanSession(row scanner) (*assistant.Session, error) {
	var session assistant.Session
	var activeFlow, collectedJSON string
	var createdAt, updatedAt int64

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.OrgID,
		&activeFlow,
		&session.StepIndex,
		&collectedJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session.ActiveFlow = assistant.FlowID(activeFlow)
	session.CreatedAt = time.UnixMilli(createdAt)
	session.UpdatedAt = time.UnixMilli(updatedAt)

	session.Collected = make(map[string]assistant.FieldValue)
	if collectedJSON != "" {
		if err := json.Unmarshal([]byte(collectedJSON), &session.Collected); err != nil {
			return nil, fmt.Errorf("failed to unmarshal collected data: %w", err)
		}
	}
	return &session, nil
}

// 编译时检查接口实现
var _ assistant.SessionRepository = (*sessionRepository)(nil)
