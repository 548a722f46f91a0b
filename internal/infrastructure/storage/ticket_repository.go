package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

// ticketRepository 工单 SQLite 仓储实现
type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository 创建工单仓储实例
func NewTicketRepository(db *sql.DB) knowledge.TicketRepository {
	if err := initTicketTable(db); err != nil {
		fmt.Printf("failed to init ticket table: %v\n", err)
	}
	return &ticketRepository{db: db}
}

// initTicketTable 初始化工单表
func initTicketTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create tickets table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_tickets_org_status ON tickets(org_id, status);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create tickets index: %w", err)
	}
	return nil
}

// Save 保存工单
func (r *ticketRepository) Save(ticket *knowledge.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = knowledge.TicketOpen
	}

	query := `
		INSERT OR REPLACE INTO tickets
		(id, org_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		ticket.ID,
		ticket.OrgID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		ticket.CreatedAt.UnixMilli(),
		ticket.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}
	return nil
}

// FindByID 根据 ID 查找工单
func (r *ticketRepository) FindByID(id string) (*knowledge.Ticket, error) {
	query := `
		SELECT id, org_id, title, description, status, created_at, updated_at
		FROM tickets
		WHERE id = ?`

	ticket, err := scanTicket(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// ListByOrg 列出组织的全部工单
func (r *ticketRepository) ListByOrg(orgID string) ([]*knowledge.Ticket, error) {
	query := `
		SELECT id, org_id, title, description, status, created_at, updated_at
		FROM tickets
		WHERE org_id = ?
		ORDER BY created_at ASC`
	return r.queryTickets(query, orgID)
}

// ListOpenByOrg 列出组织的未完成工单
func (r *ticketRepository) ListOpenByOrg(orgID string) ([]*knowledge.Ticket, error) {
	query := `
		SELECT id, org_id, title, description, status, created_at, updated_at
		FROM tickets
		WHERE org_id = ? AND status = 'open'
		ORDER BY created_at ASC`
	return r.queryTickets(query, orgID)
}

func (r *ticketRepository) queryTickets(query string, args ...interface{}) ([]*knowledge.Ticket, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*knowledge.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			continue
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func scanTicket(row scanner) (*knowledge.Ticket, error) {
	var ticket knowledge.Ticket
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(
		&ticket.ID,
		&ticket.OrgID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = knowledge.TicketStatus(status)
	ticket.CreatedAt = time.UnixMilli(createdAt)
	ticket.UpdatedAt = time.UnixMilli(updatedAt)
	return &ticket, nil
}

// Delete 删除工单
func (r *ticketRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM tickets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// 编译时检查接口实现
var _ knowledge.TicketRepository = (*ticketRepository)(nil)
