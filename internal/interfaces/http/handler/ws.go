package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/log"
	infraWS "github.com/insightloop/backend/internal/infrastructure/websocket"
	"github.com/insightloop/backend/internal/interfaces/http/response"
)

// WSHandler WebSocket 推送处理器
// 客户端连接后可收到组织内的知识库变更通知
type WSHandler struct {
	hub      *infraWS.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(hub *infraWS.Hub, cfg *config.Config) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // 本地服务允许所有来源
			},
		},
		logger: log.NewModuleLogger("http", "ws_handler"),
	}
}

// Connect 升级连接并接入 Hub
func (h *WSHandler) Connect(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		response.Error(c, http.StatusBadRequest, 950001, "org_id is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := &infraWS.Connection{
		OrgID: orgID,
		Send:  make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// writePump 将 Hub 推送的消息写入连接
func (h *WSHandler) writePump(conn *websocket.Conn, client *infraWS.Connection) {
	defer conn.Close()

	for data := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.hub.Unregister(client)
			return
		}
	}
}

// readPump 消费客户端消息，连接断开时注销
// 客户端不发送业务消息，读循环只用于感知断开
func (h *WSHandler) readPump(conn *websocket.Conn, client *infraWS.Connection) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
