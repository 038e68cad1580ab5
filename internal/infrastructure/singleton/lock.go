package singleton

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"
)

const (
	// DefaultPort 默认监听端口
	DefaultPort = ":19970"
	// HealthCheckTimeout 健康检查超时时间
	HealthCheckTimeout = 2 * time.Second
)

// CheckAndLock 检查端口是否被占用，如果被占用则检查是否有实例在运行
// 返回 listener 和 error
// 如果已有实例运行，返回 nil listener 和 nil error（调用者应退出）
// 如果端口被占用但实例不健康，返回错误
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}

	if isAddrInUse(err) {
		if isInstanceRunning(port) {
			// 已有实例运行，调用者应直接退出
			return nil, nil
		}
		return nil, fmt.Errorf("端口 %s 被占用，但健康检查失败，可能存在死锁", port)
	}

	return nil, fmt.Errorf("监听端口失败: %w", err)
}

// isAddrInUse 检查错误是否是地址已在使用
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	if errStr == "bind: address already in use" ||
		errStr == "bind: Only one usage of each socket address (protocol/network address/port) is normally permitted" {
		return true
	}

	opErr, ok := err.(*net.OpError)
	if !ok {
		return false
	}

	sysErr, ok := opErr.Err.(*os.SyscallError)
	if !ok {
		return false
	}

	errno, ok := sysErr.Err.(syscall.Errno)
	if ok {
		// Windows: WSAEADDRINUSE (10048)
		// Linux/Unix: EADDRINUSE (98)
		return errno == 10048 || errno == syscall.EADDRINUSE
	}

	errStr = sysErr.Err.Error()
	return errStr == "address already in use" ||
		errStr == "Only one usage of each socket address (protocol/network address/port) is normally permitted"
}

// isInstanceRunning 检查是否有实例在运行
func isInstanceRunning(port string) bool {
	client := &http.Client{
		Timeout: HealthCheckTimeout,
	}

	url := fmt.Sprintf("http://localhost%s/health", port)
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
