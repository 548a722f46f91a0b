package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/insightloop/backend/internal/domain/events"
	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// WatchConfig DocumentWatcher 配置
type WatchConfig struct {
	// DocsDir 知识文档目录
	DocsDir string
	// OrgID 目录归属的组织
	OrgID string
	// DebounceDelay 防抖延迟，编辑器连续写入只触发一次事件
	DebounceDelay time.Duration
	// RescanInterval 全量重扫间隔，补偿漏掉的文件事件；0 表示不重扫
	RescanInterval time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DocsDir:        filepath.Join(config.GetDataDir(), "knowledge"),
		DebounceDelay:  500 * time.Millisecond,
		RescanInterval: 6 * time.Hour,
	}
}

// DocumentWatcher 知识文档目录监听器
// 目录下的 Markdown 文件变更经防抖后发布到事件总线
type DocumentWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDocumentWatcher 创建文档监听器
func NewDocumentWatcher(config WatchConfig, eventBus events.EventBus) (*DocumentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DocumentWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "document_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动监听
// 先对目录做一次初始扫描，已存在的文档按创建事件发布
func (w *DocumentWatcher) Start() error {
	if err := os.MkdirAll(w.config.DocsDir, 0755); err != nil {
		return err
	}

	w.logger.Info("Starting document watcher", "docs_dir", w.config.DocsDir)

	w.initialScan()

	if err := w.watcher.Add(w.config.DocsDir); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.watchLoop()

	if w.config.RescanInterval > 0 {
		w.wg.Add(1)
		go w.rescanLoop()
	}
	return nil
}

// rescanLoop 周期性全量重扫，文件事件丢失时兜底
// 摄取按笔记 ID 幂等覆盖，重复发布无副作用
func (w *DocumentWatcher) rescanLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.logger.Info("Periodic rescan of document directory")
			w.initialScan()
		}
	}
}

// Stop 停止监听
func (w *DocumentWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceMu.Unlock()

	w.logger.Info("Document watcher stopped")
}

// initialScan 扫描已有文档
func (w *DocumentWatcher) initialScan() {
	entries, err := os.ReadDir(w.config.DocsDir)
	if err != nil {
		w.logger.Warn("Initial scan failed", "error", err)
		return
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		w.publish(events.DocumentFileCreated, filepath.Join(w.config.DocsDir, entry.Name()), info.ModTime())
		count++
	}

	if count > 0 {
		w.logger.Info("Initial scan published documents", "count", count)
	}
}

// watchLoop fsnotify 事件循环
func (w *DocumentWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理单个文件系统事件，写入类事件做防抖
func (w *DocumentWatcher) handleFsEvent(event fsnotify.Event) {
	if !isMarkdown(event.Name) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.cancelDebounce(event.Name)
		w.publish(events.DocumentFileDeleted, event.Name, time.Time{})

	case event.Op.Has(fsnotify.Create):
		w.debounce(event.Name, events.DocumentFileCreated)

	case event.Op.Has(fsnotify.Write):
		w.debounce(event.Name, events.DocumentFileModified)
	}
}

// debounce 延迟发布，同一文件的连续写入重置定时器
func (w *DocumentWatcher) debounce(path string, eventType events.EventType) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[path]; ok {
		timer.Stop()
	}

	w.debounceTimers[path] = time.AfterFunc(w.config.DebounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		modTime := time.Time{}
		if info, err := os.Stat(path); err == nil {
			modTime = info.ModTime()
		}
		w.publish(eventType, path, modTime)
	})
}

func (w *DocumentWatcher) cancelDebounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[path]; ok {
		timer.Stop()
		delete(w.debounceTimers, path)
	}
}

func (w *DocumentWatcher) publish(eventType events.EventType, path string, modTime time.Time) {
	w.eventBus.Publish(&events.DocumentFileEvent{
		EventType: eventType,
		FilePath:  path,
		OrgID:     w.config.OrgID,
		ModTime:   modTime,
		EventTime: time.Now(),
	})
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}
