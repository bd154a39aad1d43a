package router

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Sender 是 Router 自动回包所需的最小能力，session.Session 天然满足该接口。
type Sender interface {
	Send(op uint32, msg any) error
}

// Handler 是框架暴露给业务层的通用处理函数签名。
//
//   - s   ：消息来源，可以是原始会话，也可以是业务层包装后的玩家对象；
//   - req ：已经反序列化的请求对象，具体类型由 Route.NewRequest 决定；
//   - resp：可选的响应对象，为 nil 时不自动回包。
type Handler[S Sender] func(s S, req any) (resp any, err error)

// Route 描述一条路由规则：请求协议号 -> 请求类型 + 业务 Handler + 响应协议号。
type Route[S Sender] struct {
	// NewRequest 用于创建一个空的请求对象实例，必须返回指针。
	NewRequest func() any

	// Handler 为业务层实现的处理函数。
	Handler Handler[S]

	// RespOp 为响应消息使用的协议号。
	//
	// RespOp 为 0 时不自动回包，Handler 可以自行调用 Send。
	RespOp uint32
}

// Router 维护协议号到路由规则的映射，并负责从“原始帧”到业务 Handler 的调度。
//
// 注册应在开始处理消息前完成，Handle 可以被多个协程并发调用。
type Router[S Sender] struct {
	ser    serializer.Serializer
	routes map[uint32]Route[S]
}

// New 创建一个基于给定 Serializer 的 Router 实例。
func New[S Sender](ser serializer.Serializer) *Router[S] {
	return &Router[S]{
		ser:    ser,
		routes: make(map[uint32]Route[S]),
	}
}

// Register 为协议号 op 注册一条路由规则，同一协议号不允许重复注册。
func (r *Router[S]) Register(op uint32, route Route[S]) error {
	if op == 0 {
		return merr.WrapErrParameterInvalidMsg("router: op must not be 0")
	}
	if route.NewRequest == nil {
		return merr.WrapErrParameterMissing("NewRequest", fmt.Sprintf("op=%d", op))
	}
	if route.Handler == nil {
		return merr.WrapErrParameterMissing("Handler", fmt.Sprintf("op=%d", op))
	}
	if _, exists := r.routes[op]; exists {
		return merr.WrapErrParameterInvalidMsg("router: op=%d already registered", op)
	}
	r.routes[op] = route
	return nil
}

// Has 返回 op 是否已注册。
func (r *Router[S]) Has(op uint32) bool {
	_, ok := r.routes[op]
	return ok
}

// Handle 处理一条已经解析出的消息。
//
//  1. 根据 header.Op 查找 Route；
//  2. 反序列化请求对象；
//  3. 调用业务 Handler；
//  4. 若 Route.RespOp != 0 且 resp 非 nil，则通过 s.Send 回包。
func (r *Router[S]) Handle(s S, header *framer.Header, payload []byte) error {
	if header == nil {
		return merr.WrapErrParameterMissing("header")
	}

	route, ok := r.routes[header.Op]
	if !ok {
		return merr.WrapErrNetworkUnknownOp(header.Op)
	}

	req := route.NewRequest()
	if len(payload) > 0 {
		if err := r.ser.Unmarshal(payload, req); err != nil {
			return merr.WrapErrNetworkCodec(errors.Wrapf(err, "op=%d", header.Op))
		}
	}

	resp, err := route.Handler(s, req)
	if err != nil {
		return err
	}
	if route.RespOp == 0 || resp == nil {
		return nil
	}

	if err := s.Send(route.RespOp, resp); err != nil {
		return errors.Wrapf(err, "router: send response for op=%d", header.Op)
	}
	return nil
}
