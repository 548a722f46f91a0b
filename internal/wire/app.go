package wire

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	appKnowledge "github.com/insightloop/backend/internal/application/knowledge"
	"github.com/insightloop/backend/internal/domain/events"
	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/discovery"
	"github.com/insightloop/backend/internal/infrastructure/embedding"
	applog "github.com/insightloop/backend/internal/infrastructure/log"
	"github.com/insightloop/backend/internal/infrastructure/vector"
	"github.com/insightloop/backend/internal/infrastructure/watcher"
	"github.com/insightloop/backend/internal/infrastructure/websocket"
	"github.com/insightloop/backend/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer

	cfg           *config.Config
	wsHub         *websocket.Hub
	notifier      *websocket.Notifier
	indexer       *appKnowledge.Indexer
	vectorManager *vector.Manager
	vectorStore   *vector.Store
	embedder      *embedding.Client
	db            *sql.DB
	logger        *slog.Logger

	// 文件监听相关
	eventBus   events.EventBus
	docWatcher *watcher.DocumentWatcher

	// 局域网服务发现
	advertiser *discovery.Advertiser
}

// NewApp 创建应用实例
func NewApp(
	cfg *config.Config,
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	notifier *websocket.Notifier,
	indexer *appKnowledge.Indexer,
	vectorManager *vector.Manager,
	vectorStore *vector.Store,
	embedder *embedding.Client,
	eventBus events.EventBus,
	db *sql.DB,
) *App {
	logger := applog.NewModuleLogger("app", "main")

	// 初始化知识文档监听器
	watchConfig := watcher.DefaultWatchConfig()
	watchConfig.DocsDir = cfg.DocsDir()
	watchConfig.OrgID = cfg.Knowledge.DefaultOrgID

	docWatcher, err := watcher.NewDocumentWatcher(watchConfig, eventBus)
	if err != nil {
		logger.Error("Failed to create document watcher", "error", err)
	}

	return &App{
		HTTPServer:    httpServer,
		MCPServer:     mcpServer,
		cfg:           cfg,
		wsHub:         wsHub,
		notifier:      notifier,
		indexer:       indexer,
		vectorManager: vectorManager,
		vectorStore:   vectorStore,
		embedder:      embedder,
		db:            db,
		logger:        logger,
		eventBus:      eventBus,
		docWatcher:    docWatcher,
		advertiser:    discovery.NewAdvertiser(),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting InsightLoop backend application")

	// 启动 WebSocket Hub（Notifier 已在构造时订阅事件）
	a.wsHub.Start()

	// 索引器先订阅，再启动文件监听，避免初始扫描事件丢失
	a.indexer.Start()
	if a.docWatcher != nil {
		if err := a.docWatcher.Start(); err != nil {
			a.logger.Error("Failed to start document watcher",
				"error", err,
			)
		} else {
			a.logger.Info("Document watcher started successfully")
		}
	}

	// 向量库连接是可降级的：连不上时语义检索回退到关键词匹配
	go a.connectVectorStore()

	// 局域网广播服务地址
	a.startAdvertiser()

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("InsightLoop backend application started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
	// 已在 HTTP 服务器中注册 /mcp/sse 端点

	return nil
}

// connectVectorStore 连接 Qdrant 并确保集合存在
func (a *App) connectVectorStore() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.vectorManager.Connect(ctx); err != nil {
		a.logger.Warn("Vector store unavailable, semantic retrieval degrades to keyword matching",
			"error", err,
		)
		return
	}

	dimension, err := a.embedder.GetVectorDimension()
	if err != nil {
		a.logger.Warn("Failed to probe embedding dimension, skip collection setup",
			"error", err,
		)
		return
	}

	if err := a.vectorStore.EnsureCollection(ctx, uint64(dimension)); err != nil {
		a.logger.Warn("Failed to ensure vector collection",
			"error", err,
		)
		return
	}

	a.logger.Info("Vector store connected", "dimension", dimension)
}

// startAdvertiser 通过 mDNS 广播本机服务
func (a *App) startAdvertiser() {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "insightloop"
	}

	port, err := strconv.Atoi(strings.TrimPrefix(a.cfg.Server.HTTPPort, ":"))
	if err != nil {
		a.logger.Warn("Cannot parse HTTP port for mDNS advertising",
			"port", a.cfg.Server.HTTPPort,
		)
		return
	}

	info := discovery.ServiceInfo{
		InstanceName: hostname,
		Port:         port,
		TxtRecords: map[string]string{
			"version": "0.1.0",
		},
	}

	if err := a.advertiser.Start(info); err != nil {
		a.logger.Warn("Failed to start mDNS advertiser",
			"error", err,
		)
	}
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping InsightLoop backend application")

	// 停止局域网广播
	a.advertiser.Stop()

	// 停止文件监听器
	if a.docWatcher != nil {
		a.docWatcher.Stop()
		a.logger.Info("Document watcher stopped")
	}

	// 取消索引器订阅并关闭事件总线
	a.indexer.Stop()
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	// 断开向量库连接
	if err := a.vectorManager.Close(); err != nil {
		a.logger.Error("Failed to close vector store connection",
			"error", err,
		)
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop MCP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("InsightLoop backend application stopped successfully")

	return nil
}
