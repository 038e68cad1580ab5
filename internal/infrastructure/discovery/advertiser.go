package discovery

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"log/slog"

	"github.com/grandcat/zeroconf"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/log"
)

// Advertiser mDNS 服务广播器
// 让局域网内的客户端（手机、其它设备）无需配置就能找到 homebase 实例
type Advertiser struct {
	mu      sync.RWMutex
	cfg     *config.DiscoveryConfig
	server  *zeroconf.Server
	running bool
	logger  *slog.Logger
}

// NewAdvertiser 创建 mDNS 广播器
func NewAdvertiser(cfg *config.DiscoveryConfig) *Advertiser {
	return &Advertiser{
		cfg:    cfg,
		logger: log.NewModuleLogger("discovery", "advertiser"),
	}
}

// Start 开始广播服务
// httpPort 为 ":19970" 形式的监听地址
func (a *Advertiser) Start(httpPort, version string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.cfg.Enabled {
		a.logger.Info("mDNS discovery disabled")
		return nil
	}

	if a.running {
		return fmt.Errorf("advertiser is already running")
	}

	port, err := parsePort(httpPort)
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = a.cfg.ServiceName
	}

	instanceName := fmt.Sprintf("%s@%s", a.cfg.ServiceName, hostname)
	txtRecords := []string{
		"version=" + version,
		"api=/api/v1",
	}

	server, err := zeroconf.Register(
		instanceName,
		a.cfg.ServiceType,
		"local.",
		port,
		txtRecords,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	a.running = true

	a.logger.Info("mDNS advertiser started",
		"instance", instanceName,
		"service", a.cfg.ServiceType,
		"port", port,
	)
	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.running = false

	a.logger.Info("mDNS advertiser stopped")
	return nil
}

// IsRunning 是否正在广播
func (a *Advertiser) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// parsePort 从 ":19970" 或 "0.0.0.0:19970" 解析端口号
func parsePort(addr string) (int, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return 0, fmt.Errorf("invalid listen address %q", addr)
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil || port <= 0 {
		return 0, fmt.Errorf("invalid listen address %q", addr)
	}
	return port, nil
}
