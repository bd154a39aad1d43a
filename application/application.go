package application

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
	"github.com/lk2023060901/rs-world-go/internal/game/storage"
	"github.com/lk2023060901/rs-world-go/internal/game/world"
	"github.com/lk2023060901/rs-world-go/internal/network/acceptor"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/compressor"
	"github.com/lk2023060901/rs-world-go/internal/network/crypto"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/internal/server"
	zlog "github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	zviper "github.com/lk2023060901/rs-world-go/pkg/util/viper"
)

// Application is the runtime container of the world server.
// It owns configuration and wires the world, the network server and the
// metrics endpoint together.
type Application struct {
	raw     *zviper.Config
	cfg     *Config
	loggers map[string]*zlog.MLogger

	store  storage.Store
	saver  *storage.Saver
	world  *world.World
	server *server.Server
	zstd   *compressor.ZstdCompressor
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run loads configuration, builds every component and blocks until ctx is
// canceled or one of the components fails.
//
// The config file path is resolved with the following priority:
//  1. Default: ./config.yaml
//  2. Env: RSW_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
func (a *Application) Run(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.initLogging(); err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	startCtx, span := zlog.NewIntentContext("application", "startup")
	err := a.build(startCtx)
	span.End()
	if err != nil {
		a.close()
		return err
	}
	defer a.close()

	return a.serve(ctx)
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *Config {
	return a.cfg
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldModule(name))
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig() error {
	configPath := "./config.yaml"

	if envPath := os.Getenv("RSW_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return errors.New("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			if val := strings.TrimPrefix(arg, "--config="); val != "" {
				configPath = val
			}
		}
	}

	raw, cfg, err := loadConfigFile(configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load config file %q", configPath)
	}
	a.raw, a.cfg = raw, cfg
	return nil
}

// build constructs storage, world, network server in dependency order.
func (a *Application) build(ctx context.Context) error {
	log := zlog.Ctx(ctx)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store

	a.saver = storage.NewSaver(store, storage.SaverConfig{
		Workers:    a.cfg.Storage.SaveWorkers,
		Timeout:    a.cfg.Storage.SaveTimeout,
		MaxRetries: a.cfg.Storage.SaveRetries,
	})
	a.saver.SetLogger(a.Logger("storage"))

	var hasher storage.Hasher = storage.PlainHasher{}
	if a.cfg.World.HashPasswords {
		hasher = storage.BcryptHasher{Cost: a.cfg.World.BcryptCost}
	}

	dispatcher := event.NewDispatcher()
	dispatcher.SetLogger(a.Logger("event"))
	storage.NewPersistence(a.saver).Subscribe(dispatcher)

	ser := serializer.NewJSONSerializer()
	a.world, err = world.New(a.cfg.World, world.Deps{
		Dispatcher: dispatcher,
		Store:      store,
		Hasher:     hasher,
		Saver:      a.saver,
		Serializer: ser,
	})
	if err != nil {
		return err
	}
	a.world.SetLogger(a.Logger("world"))
	a.world.Presence().SetLogger(a.Logger("presence"))

	c, err := a.buildCodec(ser)
	if err != nil {
		return err
	}
	acc, err := acceptor.NewTCPAcceptor(a.cfg.Network.Addr, c, acceptor.Config{ReadTimeout: a.cfg.Network.ReadTimeout})
	if err != nil {
		return err
	}
	a.server, err = server.New(a.world, acc, server.Config{
		SendQueueSize: a.cfg.Network.SendQueueSize,
		WriteTimeout:  a.cfg.Network.WriteTimeout,
	})
	if err != nil {
		_ = acc.Close()
		return err
	}
	a.server.SetLogger(a.Logger("network"))

	log.Info("application built",
		zap.String("world", a.cfg.World.Name),
		zap.String("addr", a.cfg.Network.Addr),
		zap.String("storage", a.cfg.Storage.Driver))
	return nil
}

func (a *Application) openStore(ctx context.Context) (storage.Store, error) {
	switch a.cfg.Storage.Driver {
	case StorageDriverMemory:
		return storage.NewMemoryStore(), nil
	case StorageDriverSQLite:
		return storage.OpenSQLite(ctx, a.cfg.Storage.DSN)
	default:
		return nil, errors.Newf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

func (a *Application) buildCodec(ser serializer.Serializer) (codec.Codec, error) {
	opts := codec.Options{
		Framer:            framer.NewLengthPrefixedFramer(uint32(a.cfg.Network.MaxFrameSize)),
		Serializer:        ser,
		EnableCompression: a.cfg.Network.Compression,
		MinCompressSize:   a.cfg.Network.MinCompressSize,
	}
	if a.cfg.Network.Compression {
		zstd, err := compressor.NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		a.zstd = zstd
		opts.Compressor = zstd
	}
	enc, err := crypto.New(a.cfg.Network.Cipher, a.cfg.Network.CipherKey)
	if err != nil {
		return nil, err
	}
	if _, nop := enc.(crypto.NopEncryptor); !nop {
		opts.Encryptor = enc
		opts.EnableEncryption = true
	}
	return codec.New(opts)
}

// serve runs the tick loop, the acceptor and the metrics endpoint until one
// of them fails or ctx is canceled.
func (a *Application) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.world.Run(gctx)
	})
	g.Go(func() error {
		return a.server.Serve(gctx)
	})

	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metrics.NewServeMux(metrics.NewRegistry()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			zlog.Info("metrics server listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// close releases components in reverse order of construction.
func (a *Application) close() {
	if a.server != nil {
		_ = a.server.Close()
	}
	if a.world != nil {
		a.world.Close()
	}
	if a.saver != nil {
		a.saver.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			zlog.Warn("close store failed", zap.Error(err))
		}
	}
	if a.zstd != nil {
		a.zstd.Close()
	}
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv configures the process-wide logger based on RSW_LOG_* env vars.
//
//   - RSW_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - RSW_LOG_LEVEL: log level (default "info").
//   - RSW_LOG_STDOUT: whether to log to stdout (default true).
//   - RSW_LOG_FILE_DIR: log directory.
//   - RSW_LOG_FILE: log file name (empty means no file).
//   - RSW_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("RSW_LOG_ENABLE", true)

	cfg := &zlog.Config{
		Level:               getenvDefault("RSW_LOG_LEVEL", "info"),
		Format:              getenvDefault("RSW_LOG_FORMAT", "text"),
		Stdout:              getenvBool("RSW_LOG_STDOUT", true),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("RSW_LOG_FILE_DIR", ""),
			Filename: getenvDefault("RSW_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  world:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: world.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.raw == nil || !a.raw.IsSet("logging") {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.raw.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
