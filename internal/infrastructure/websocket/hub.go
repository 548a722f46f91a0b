package websocket

import (
	"encoding/json"
	"sync"
)

// Hub WebSocket 连接管理中心
// 按组织分组管理连接，用于向组织内所有客户端推送知识库变更等事件
type Hub struct {
	// 按组织 ID 分组的连接
	orgs map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	mu        sync.RWMutex
}

// Connection WebSocket 连接
type Connection struct {
	OrgID string
	Send  chan []byte
}

// Message 消息
type Message struct {
	OrgID string
	Data  []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		orgs:       make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.orgs[conn.OrgID] == nil {
				h.orgs[conn.OrgID] = make(map[*Connection]bool)
			}
			h.orgs[conn.OrgID][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if org, ok := h.orgs[conn.OrgID]; ok {
				if _, ok := org[conn]; ok {
					delete(org, conn)
					close(conn.Send)
					if len(org) == 0 {
						delete(h.orgs, conn.OrgID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if org, ok := h.orgs[msg.OrgID]; ok {
				for conn := range org {
					select {
					case conn.Send <- msg.Data:
					default:
						close(conn.Send)
						delete(org, conn)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToOrg 向指定组织广播消息
func (h *Hub) BroadcastToOrg(orgID string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	h.broadcast <- &Message{
		OrgID: orgID,
		Data:  jsonData,
	}
	return nil
}
