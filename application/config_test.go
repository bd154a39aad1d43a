package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
)

func TestLoadConfigFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  name: Testworld\n"), 0o600))

	_, cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Testworld", cfg.World.Name)
	assert.Equal(t, uint16(1), cfg.World.ID)
	assert.Equal(t, 600*time.Millisecond, cfg.World.TickInterval)
	assert.Equal(t, 5000*time.Millisecond, cfg.World.IdleTimeout)
	assert.True(t, cfg.World.HashPasswords)
	assert.Equal(t, 5, cfg.World.Throttle.Attempts)
	assert.Equal(t, time.Minute, cfg.World.Throttle.Window)
	assert.Equal(t, 10*time.Second, cfg.World.WorkerExpiry)
	assert.Equal(t, "0.0.0.0:43594", cfg.Network.Addr)
	assert.Equal(t, "none", cfg.Network.Cipher)
	assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, ":9464", cfg.Metrics.Addr)
}

func TestLoadConfigFile_Shipped(t *testing.T) {
	_, cfg, err := loadConfigFile(filepath.Join("..", "configs", "world.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "RuneSource", cfg.World.Name)
	assert.Equal(t, 5*time.Second, cfg.Network.WriteTimeout)
	assert.Equal(t, uint64(3), cfg.Storage.SaveRetries)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, _, err := loadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestBuildCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  compression: true\n  cipher: xchacha20\n  cipher-key: \""+
		"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f\"\n"), 0o600))
	_, cfg, err := loadConfigFile(path)
	require.NoError(t, err)

	a := &Application{cfg: cfg}
	c, err := a.buildCodec(serializer.NewJSONSerializer())
	require.NoError(t, err)
	assert.NotNil(t, c)
	require.NotNil(t, a.zstd)
	a.zstd.Close()

	cfg.Network.Cipher = "rot13"
	_, err = a.buildCodec(serializer.NewJSONSerializer())
	assert.Error(t, err)
}
