// Package knowledge 知识库应用服务
// 维护笔记、工单和企业画像，并为助手提供只读快照
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// VectorIndex 笔记向量索引协作方
type VectorIndex interface {
	UpsertNotes(ctx context.Context, notes []*domain.Note, vectors [][]float32) error
	DeleteNote(ctx context.Context, noteID string) error
}

// Embedder 文本向量化协作方
type Embedder interface {
	EmbedTexts(texts []string) ([][]float32, error)
}

// Service 知识库应用服务
type Service struct {
	notes    domain.NoteRepository
	tickets  domain.TicketRepository
	profiles domain.ProfileRepository
	index    VectorIndex
	embedder Embedder
	logger   *slog.Logger
}

// NewService 创建知识库服务
func NewService(
	notes domain.NoteRepository,
	tickets domain.TicketRepository,
	profiles domain.ProfileRepository,
	index VectorIndex,
	embedder Embedder,
) *Service {
	return &Service{
		notes:    notes,
		tickets:  tickets,
		profiles: profiles,
		index:    index,
		embedder: embedder,
		logger:   log.NewModuleLogger("knowledge", "service"),
	}
}

// Snapshot 构建组织知识库快照
// 任一来源失败记日志并留空，不让调用方的一轮对话失败
func (s *Service) Snapshot(ctx context.Context, orgID string) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}

	profile, err := s.profiles.FindByOrg(orgID)
	if err != nil {
		s.logger.Warn("Failed to load profile for snapshot", "org_id", orgID, "error", err)
	} else {
		snap.Profile = profile
	}

	notes, err := s.notes.ListByOrg(orgID)
	if err != nil {
		s.logger.Warn("Failed to load notes for snapshot", "org_id", orgID, "error", err)
	} else {
		snap.Notes = notes
	}

	tickets, err := s.tickets.ListOpenByOrg(orgID)
	if err != nil {
		s.logger.Warn("Failed to load open tickets for snapshot", "org_id", orgID, "error", err)
	} else {
		snap.OpenTickets = tickets
	}

	return snap, nil
}

// SaveNote 保存笔记并更新向量索引
// 索引失败不阻塞保存，关键词回退仍能命中该笔记
func (s *Service) SaveNote(ctx context.Context, note *domain.Note) error {
	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	if err := s.notes.Save(note); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	if err := s.indexNote(ctx, note); err != nil {
		s.logger.Warn("Failed to index note", "note_id", note.ID, "error", err)
	}
	return nil
}

// indexNote 向量化笔记并写入索引
func (s *Service) indexNote(ctx context.Context, note *domain.Note) error {
	vectors, err := s.embedder.EmbedTexts([]string{note.Title + "\n" + note.Body})
	if err != nil {
		return fmt.Errorf("failed to embed note: %w", err)
	}
	return s.index.UpsertNotes(ctx, []*domain.Note{note}, vectors)
}

// DeleteNote 删除笔记及其向量
func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	if err := s.notes.Delete(noteID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if err := s.index.DeleteNote(ctx, noteID); err != nil {
		s.logger.Warn("Failed to delete note vector", "note_id", noteID, "error", err)
	}
	return nil
}

// ListNotes 列出组织的笔记
func (s *Service) ListNotes(orgID string) ([]*domain.Note, error) {
	return s.notes.ListByOrg(orgID)
}

// SaveTicket 保存工单
func (s *Service) SaveTicket(ticket *domain.Ticket) error {
	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	return s.tickets.Save(ticket)
}

// CloseTicket 关闭工单
func (s *Service) CloseTicket(ticketID string) error {
	ticket, err := s.tickets.FindByID(ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return fmt.Errorf("ticket not found: %s", ticketID)
	}

	ticket.Status = domain.TicketClosed
	ticket.UpdatedAt = time.Now()
	return s.tickets.Save(ticket)
}

// ListTickets 列出组织的工单
func (s *Service) ListTickets(orgID string) ([]*domain.Ticket, error) {
	return s.tickets.ListByOrg(orgID)
}

// GetProfile 获取组织的企业画像
func (s *Service) GetProfile(orgID string) (*domain.CompanyProfile, error) {
	return s.profiles.FindByOrg(orgID)
}

// SaveProfile 保存企业画像
func (s *Service) SaveProfile(profile *domain.CompanyProfile) error {
	profile.UpdatedAt = time.Now()
	return s.profiles.Save(profile)
}
