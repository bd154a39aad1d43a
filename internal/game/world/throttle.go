package world

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle 按主机统计失败的登录尝试，窗口内失败次数达到上限后拒绝该主机登录。
type Throttle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewThrottle 创建一个每 window 最多允许 attempts 次失败的节流器。
func NewThrottle(attempts int, window time.Duration) *Throttle {
	if attempts <= 0 {
		attempts = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Throttle{
		limit:    rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Record 记录一次失败的尝试。
func (t *Throttle) Record(host string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[host]
	if !ok {
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[host] = lim
	}
	lim.AllowN(now, 1)
}

// Throttled 判断主机是否已用尽失败次数。
func (t *Throttle) Throttled(host string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[host]
	if !ok {
		return false
	}
	return lim.TokensAt(now) < 1
}

// Sweep 清理已完全恢复的主机。
func (t *Throttle) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for host, lim := range t.limiters {
		if lim.TokensAt(now) >= float64(t.burst) {
			delete(t.limiters, host)
			removed++
		}
	}
	return removed
}
