// Package vector Qdrant 向量库接入层
package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/insightloop/backend/internal/infrastructure/log"
)

// Manager Qdrant 连接管理器
// 连接部署在数据层的 Qdrant 实例，不负责其进程生命周期
type Manager struct {
	host   string
	port   int
	client *qdrant.Client
	logger *slog.Logger
}

// NewManager 创建连接管理器
func NewManager(host string, port int) *Manager {
	return &Manager{
		host:   host,
		port:   port,
		logger: log.NewModuleLogger("vector", "manager"),
	}
}

// Connect 建立连接并验证可达性
func (m *Manager) Connect(ctx context.Context) error {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: m.host,
		Port: m.port,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	if _, err := client.ListCollections(ctx); err != nil {
		client.Close()
		return fmt.Errorf("qdrant not reachable at %s:%d: %w", m.host, m.port, err)
	}

	m.client = client
	m.logger.Info("Connected to qdrant", "host", m.host, "port", m.port)
	return nil
}

// Close 关闭连接
func (m *Manager) Close() error {
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	return nil
}

// GetClient 获取 Qdrant 客户端，未连接时返回 nil
func (m *Manager) GetClient() *qdrant.Client {
	return m.client
}
