package funcutil

import (
	"context"
	"net"
	"strconv"
)

// CheckCtxValid 判断 ctx 是否仍然有效（未取消、未超时）。
func CheckCtxValid(ctx context.Context) bool {
	return ctx.Err() == nil
}

// HostOf 返回地址中的主机部分，无法拆分端口时返回原字符串。
func HostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// ParsePort 解析 "host:port" 中的端口号。
func ParsePort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}
