// Package discovery 在局域网内通过 mDNS 广播服务地址
// 让同一网络下的客户端无需配置即可发现本机实例
package discovery

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/insightloop/backend/internal/infrastructure/log"
)

// ServiceType mDNS 服务类型
const ServiceType = "_insightloop._tcp"

// ServiceInfo 广播的服务信息
type ServiceInfo struct {
	// InstanceName 实例名称（通常为主机名）
	InstanceName string
	// Port HTTP 服务端口
	Port int
	// TxtRecords 附加 TXT 记录
	TxtRecords map[string]string
}

// Advertiser mDNS 服务广播器
type Advertiser struct {
	mu      sync.Mutex
	server  *zeroconf.Server
	running bool
	logger  *slog.Logger
}

// NewAdvertiser 创建 mDNS 广播器
func NewAdvertiser() *Advertiser {
	return &Advertiser{
		logger: log.NewModuleLogger("discovery", "advertiser"),
	}
}

// Start 开始广播服务
func (a *Advertiser) Start(info ServiceInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("advertiser is already running")
	}

	// 构建 TXT 记录
	var txtRecords []string
	for k, v := range info.TxtRecords {
		txtRecords = append(txtRecords, fmt.Sprintf("%s=%s", k, v))
	}

	a.logger.Info("starting mDNS advertiser",
		"instance", info.InstanceName,
		"port", info.Port,
		"txt_records", txtRecords,
	)

	server, err := zeroconf.Register(
		info.InstanceName,
		ServiceType,
		"local.",
		info.Port,
		txtRecords,
		nil, // 所有可用接口
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	a.running = true

	a.logger.Info("mDNS advertiser started", "instance", info.InstanceName)

	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	a.running = false
	a.logger.Info("mDNS advertiser stopped")
}
