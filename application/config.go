package application

import (
	"time"

	"github.com/lk2023060901/rs-world-go/internal/game/world"
	zviper "github.com/lk2023060901/rs-world-go/pkg/util/viper"
)

// NetworkConfig 描述监听与帧编解码参数。
type NetworkConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxFrameSize    int           `mapstructure:"max-frame-size"`
	Compression     bool          `mapstructure:"compression"`
	MinCompressSize int           `mapstructure:"min-compress-size"`
	Cipher          string        `mapstructure:"cipher"`
	CipherKey       string        `mapstructure:"cipher-key"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	SendQueueSize   int           `mapstructure:"send-queue-size"`
}

// StorageConfig 描述档案存储参数。
type StorageConfig struct {
	Driver      string        `mapstructure:"driver"`
	DSN         string        `mapstructure:"dsn"`
	SaveWorkers int           `mapstructure:"save-workers"`
	SaveTimeout time.Duration `mapstructure:"save-timeout"`
	SaveRetries uint64        `mapstructure:"save-retries"`
}

// MetricsConfig 描述指标暴露地址，留空表示不启动指标服务。
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config 为进程的完整配置。
type Config struct {
	World   world.Config  `mapstructure:"world"`
	Network NetworkConfig `mapstructure:"network"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

const (
	StorageDriverSQLite = "sqlite"
	StorageDriverMemory = "memory"
)

func setDefaults(v *zviper.Config) {
	def := world.DefaultConfig()
	v.SetDefault("world.name", def.Name)
	v.SetDefault("world.id", def.ID)
	v.SetDefault("world.tick-interval", def.TickInterval)
	v.SetDefault("world.idle-timeout", def.IdleTimeout)
	v.SetDefault("world.max-cons-per-host", def.MaxConsPerHost)
	v.SetDefault("world.max-players", def.MaxPlayers)
	v.SetDefault("world.hash-passwords", true)
	v.SetDefault("world.client-versions", def.ClientVersions)
	v.SetDefault("world.throttle.attempts", def.Throttle.Attempts)
	v.SetDefault("world.throttle.window", def.Throttle.Window)
	v.SetDefault("world.worker-expiry", def.WorkerExpiry)

	v.SetDefault("network.addr", "0.0.0.0:43594")
	v.SetDefault("network.max-frame-size", 1<<20)
	v.SetDefault("network.compression", false)
	v.SetDefault("network.min-compress-size", 256)
	v.SetDefault("network.cipher", "none")

	v.SetDefault("storage.driver", StorageDriverSQLite)
	v.SetDefault("storage.dsn", "./data/world.db")

	v.SetDefault("metrics.addr", ":9464")
}

// loadConfigFile 读取配置文件并填充默认值。
func loadConfigFile(path string) (*zviper.Config, *Config, error) {
	v := zviper.New()
	setDefaults(v)
	if err := v.LoadFile(path); err != nil {
		return nil, nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}
