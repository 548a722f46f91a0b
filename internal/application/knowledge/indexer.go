package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/insightloop/backend/internal/domain/events"
	domain "github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// Indexer 知识文档摄取器
// 订阅文档文件事件，把 Markdown 文件导入为笔记并触发向量索引
type Indexer struct {
	service  *Service
	eventBus events.EventBus
	logger   *slog.Logger

	unsubscribes []func()
}

// NewIndexer 创建文档摄取器
func NewIndexer(service *Service, eventBus events.EventBus) *Indexer {
	return &Indexer{
		service:  service,
		eventBus: eventBus,
		logger:   log.NewModuleLogger("knowledge", "indexer"),
	}
}

// Start 开始订阅文档事件
func (i *Indexer) Start() {
	handler := events.HandlerFunc(i.handleDocumentEvent)
	for _, eventType := range []events.EventType{
		events.DocumentFileCreated,
		events.DocumentFileModified,
		events.DocumentFileDeleted,
	} {
		i.unsubscribes = append(i.unsubscribes, i.eventBus.Subscribe(eventType, handler))
	}
	i.logger.Info("Document indexer started")
}

// Stop 取消订阅
func (i *Indexer) Stop() {
	for _, unsub := range i.unsubscribes {
		unsub()
	}
	i.unsubscribes = nil
}

// handleDocumentEvent 处理单个文档事件
func (i *Indexer) handleDocumentEvent(event events.Event) error {
	docEvent, ok := event.(*events.DocumentFileEvent)
	if !ok {
		return nil
	}

	switch docEvent.EventType {
	case events.DocumentFileCreated, events.DocumentFileModified:
		return i.ingestFile(docEvent.OrgID, docEvent.FilePath)
	case events.DocumentFileDeleted:
		return i.removeFile(docEvent.OrgID, docEvent.FilePath)
	}
	return nil
}

// ingestFile 导入单个 Markdown 文件
// 笔记 ID 由文件名派生，重复导入覆盖同一笔记
func (i *Indexer) ingestFile(orgID, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}

	title, body := parseMarkdown(string(content), path)
	note := &domain.Note{
		ID:    noteIDForFile(orgID, path),
		OrgID: orgID,
		Title: title,
		Body:  body,
	}

	if err := i.service.SaveNote(context.Background(), note); err != nil {
		return err
	}

	i.eventBus.Publish(&events.NoteIndexedEvent{
		NoteID:    note.ID,
		OrgID:     orgID,
		Title:     note.Title,
		EventTime: time.Now(),
	})

	i.logger.Debug("Document ingested", "path", path, "note_id", note.ID)
	return nil
}

// removeFile 文档删除时移除对应笔记
func (i *Indexer) removeFile(orgID, path string) error {
	return i.service.DeleteNote(context.Background(), noteIDForFile(orgID, path))
}

// noteIDForFile 文件路径到稳定笔记 ID 的映射
func noteIDForFile(orgID, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("doc-%s-%s", orgID, base)
}

// parseMarkdown 取首个一级标题作为笔记标题，没有则用文件名
func parseMarkdown(content, path string) (title, body string) {
	lines := strings.Split(content, "\n")
	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			body = strings.TrimSpace(strings.Join(append(lines[:idx:idx], lines[idx+1:]...), "\n"))
			return title, body
		}
	}

	title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return title, strings.TrimSpace(content)
}
