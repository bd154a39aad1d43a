package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/conc"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// SaverConfig 描述异步存档的参数。
type SaverConfig struct {
	Workers    int
	Timeout    time.Duration
	MaxRetries uint64
}

func (c *SaverConfig) initialize() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Saver 在独立的协程池中保存档案，失败只记录日志，不反馈给玩家。
type Saver struct {
	log.Binder

	store Store
	cfg   SaverConfig
	pool  *conc.Pool[struct{}]

	wg sync.WaitGroup
}

func NewSaver(store Store, cfg SaverConfig) *Saver {
	cfg.initialize()
	return &Saver{
		store: store,
		cfg:   cfg,
		pool:  conc.NewPool[struct{}](cfg.Workers, conc.WithConcealPanic(true)),
	}
}

// Save 提交一次异步存档。
func (s *Saver) Save(pr *Profile) {
	s.wg.Add(1)
	future := s.pool.Submit(func() (struct{}, error) {
		return struct{}{}, s.save(pr)
	})
	go func() {
		defer s.wg.Done()
		if _, err := future.Await(); errors.Is(err, merr.ErrServiceResourceInsufficient) {
			s.Logger().Warn("submit save task failed", log.FieldPlayer(pr.Username), zap.Error(err))
		}
	}()
}

// SaveNow 同步保存，用于停服时落盘。
func (s *Saver) SaveNow(ctx context.Context, pr *Profile) error {
	return s.store.Save(ctx, pr)
}

func (s *Saver) save(pr *Profile) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries), ctx)
	err := backoff.Retry(func() error {
		err := s.store.Save(ctx, pr)
		if err != nil && !merr.IsRetryableErr(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)

	metrics.StorageSaveLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.StorageSaveFailures.Inc()
		s.Logger().Warn("save profile failed",
			log.FieldPlayer(pr.Username), log.FieldKey(pr.Key), zap.Error(err))
		return err
	}
	s.Logger().Debug("profile saved", log.FieldPlayer(pr.Username))
	return nil
}

// Close 等待已提交的存档完成并释放协程池。
func (s *Saver) Close() {
	s.wg.Wait()
	s.pool.Release()
}
