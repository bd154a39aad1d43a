package world

import "sync"

// HostGateway 统计每个主机当前持有的连接数。
type HostGateway struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewHostGateway() *HostGateway {
	return &HostGateway{counts: make(map[string]int)}
}

// Enter 记录一个新连接并返回该主机的连接数。
func (g *HostGateway) Enter(host string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[host]++
	return g.counts[host]
}

// Exit 释放一个连接。
func (g *HostGateway) Exit(host string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.counts[host]; n > 1 {
		g.counts[host] = n - 1
	} else {
		delete(g.counts, host)
	}
}

func (g *HostGateway) Count(host string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[host]
}
