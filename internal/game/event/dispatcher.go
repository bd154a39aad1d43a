package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Handler 为事件处理器的能力接口，同一 ID 对同一类型只会注册一次。
type Handler interface {
	ID() string
	Handle(ctx context.Context, ev Event) error
}

type funcHandler struct {
	id string
	fn func(ctx context.Context, ev Event) error
}

func (h *funcHandler) ID() string { return h.id }

func (h *funcHandler) Handle(ctx context.Context, ev Event) error { return h.fn(ctx, ev) }

// NewHandler 用函数构造一个处理器。
func NewHandler(id string, fn func(ctx context.Context, ev Event) error) Handler {
	return &funcHandler{id: id, fn: fn}
}

// Dispatcher 维护事件类型到有序处理器列表的映射。
//
// 处理器按注册顺序被调用；处理器返回的错误或 panic 只会被记录，不会影响后续处理器，
// 也不会返回给事件的触发方。
type Dispatcher struct {
	log.Binder

	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind][]Handler),
	}
}

// Register 将 h 追加到 kind 的处理器列表，返回是否新增。
func (d *Dispatcher) Register(kind Kind, h Handler) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	exists := lo.ContainsBy(d.handlers[kind], func(item Handler) bool {
		return item.ID() == h.ID()
	})
	if exists {
		return false
	}
	d.handlers[kind] = append(d.handlers[kind], h)
	return true
}

// RegisterAll 为多个事件类型注册同一个处理器。
func (d *Dispatcher) RegisterAll(h Handler, kinds ...Kind) {
	for _, kind := range kinds {
		d.Register(kind, h)
	}
}

// Handlers 返回 kind 已注册处理器的 ID，按注册顺序排列。
func (d *Dispatcher) Handlers(kind Kind) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Map(d.handlers[kind], func(h Handler, _ int) string { return h.ID() })
}

// Dispatch 依次调用 ev.Kind() 的全部处理器。
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	kind := ev.Kind()

	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[kind]...)
	d.mu.RUnlock()

	metrics.EventDispatched.WithLabelValues(kind.String()).Inc()
	for _, h := range handlers {
		if err := d.invoke(ctx, h, ev); err != nil {
			metrics.EventHandlerFaults.WithLabelValues(kind.String()).Inc()
			d.Logger().Warn("event handler failed",
				zap.String("kind", kind.String()),
				zap.String("handler", h.ID()),
				log.FieldPlayer(sourceName(ev)),
				zap.Error(err))
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = merr.WrapErrEventHandlerPanic(h.ID(), r)
		}
	}()
	return h.Handle(ctx, ev)
}

func sourceName(ev Event) string {
	if p := ev.Source(); p != nil {
		return p.String()
	}
	return fmt.Sprintf("<%s>", ev.Kind())
}
