package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/log"
	"github.com/insightloop/backend/internal/interfaces/http/handler"
	"github.com/insightloop/backend/internal/interfaces/mcp"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	serverCfg *config.ServerConfig,
	assistantHandler *handler.AssistantHandler,
	knowledgeHandler *handler.KnowledgeHandler,
	sessionHandler *handler.SessionHandler,
	settingsHandler *handler.SettingsHandler,
	wsHandler *handler.WSHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	router := gin.Default()

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 对话相关路由
		api.POST("/assistant/turn", assistantHandler.Turn)
		api.POST("/assistant/stop", assistantHandler.Stop)

		// 会话管理路由
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.Detail)
		api.DELETE("/sessions/:id", sessionHandler.Delete)

		// 知识库路由
		knowledge := api.Group("/knowledge")
		{
			knowledge.GET("/notes", knowledgeHandler.ListNotes)
			knowledge.POST("/notes", knowledgeHandler.SaveNote)
			knowledge.DELETE("/notes/:id", knowledgeHandler.DeleteNote)
			knowledge.GET("/tickets", knowledgeHandler.ListTickets)
			knowledge.POST("/tickets", knowledgeHandler.SaveTicket)
			knowledge.POST("/tickets/:id/close", knowledgeHandler.CloseTicket)
			knowledge.GET("/profile", knowledgeHandler.GetProfile)
			knowledge.PUT("/profile", knowledgeHandler.SaveProfile)
		}

		// 配置路由
		api.GET("/settings", settingsHandler.Get)
		api.POST("/settings", settingsHandler.Update)
	}

	// WebSocket 推送
	router.GET("/ws", wsHandler.Connect)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: serverCfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
