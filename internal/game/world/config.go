package world

import (
	"time"

	"github.com/lk2023060901/rs-world-go/pkg/util/hardware"
)

// ThrottleConfig 描述登录失败节流参数。
type ThrottleConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Window   time.Duration `mapstructure:"window"`
}

// Config 为世界的运行参数。
type Config struct {
	Name           string         `mapstructure:"name"`
	ID             uint16         `mapstructure:"id"`
	TickInterval   time.Duration  `mapstructure:"tick-interval"`
	IdleTimeout    time.Duration  `mapstructure:"idle-timeout"`
	MaxConsPerHost int            `mapstructure:"max-cons-per-host"`
	MaxPlayers     int            `mapstructure:"max-players"`
	HashPasswords  bool           `mapstructure:"hash-passwords"`
	BcryptCost     int            `mapstructure:"bcrypt-cost"`
	ClientVersions string         `mapstructure:"client-versions"`
	Throttle       ThrottleConfig `mapstructure:"throttle"`
	Workers        int            `mapstructure:"workers"`
	// WorkerExpiry 为凭据校验池空闲 worker 的回收间隔，tick 池常驻不回收。
	WorkerExpiry time.Duration `mapstructure:"worker-expiry"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	cfg := Config{HashPasswords: true}
	cfg.initialize()
	return cfg
}

func (c *Config) initialize() {
	if c.Name == "" {
		c.Name = "RuneSource"
	}
	if c.ID == 0 {
		c.ID = 1
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 600 * time.Millisecond
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5000 * time.Millisecond
	}
	if c.MaxConsPerHost <= 0 {
		c.MaxConsPerHost = 5
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 2000
	}
	if c.ClientVersions == "" {
		c.ClientVersions = ">=317.0.0 <318.0.0"
	}
	if c.Throttle.Attempts <= 0 {
		c.Throttle.Attempts = 5
	}
	if c.Throttle.Window <= 0 {
		c.Throttle.Window = time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = hardware.GetCPUNum()
	}
	if c.WorkerExpiry <= 0 {
		c.WorkerExpiry = 10 * time.Second
	}
}
