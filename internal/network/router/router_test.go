package router

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

type echoReq struct {
	Text string `json:"text"`
}

type echoResp struct {
	Text string `json:"text"`
}

type sent struct {
	op  uint32
	msg any
}

type recorder struct {
	sent []sent
}

func (r *recorder) Send(op uint32, msg any) error {
	r.sent = append(r.sent, sent{op: op, msg: msg})
	return nil
}

func echoRoute() Route[*recorder] {
	return Route[*recorder]{
		NewRequest: func() any { return &echoReq{} },
		Handler: func(_ *recorder, req any) (any, error) {
			return &echoResp{Text: req.(*echoReq).Text}, nil
		},
		RespOp: 2,
	}
}

func TestRouter_Register(t *testing.T) {
	r := New[*recorder](serializer.NewJSONSerializer())

	assert.Error(t, r.Register(0, echoRoute()))
	assert.Error(t, r.Register(1, Route[*recorder]{Handler: echoRoute().Handler}))
	assert.Error(t, r.Register(1, Route[*recorder]{NewRequest: echoRoute().NewRequest}))

	require.NoError(t, r.Register(1, echoRoute()))
	assert.Error(t, r.Register(1, echoRoute()))
	assert.True(t, r.Has(1))
	assert.False(t, r.Has(2))
}

func TestRouter_Handle(t *testing.T) {
	r := New[*recorder](serializer.NewJSONSerializer())
	require.NoError(t, r.Register(1, echoRoute()))

	rec := &recorder{}
	require.NoError(t, r.Handle(rec, &framer.Header{Op: 1}, []byte(`{"text":"hi"}`)))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, uint32(2), rec.sent[0].op)
	assert.Equal(t, "hi", rec.sent[0].msg.(*echoResp).Text)

	err := r.Handle(rec, &framer.Header{Op: 9}, nil)
	assert.True(t, errors.Is(err, merr.ErrNetworkUnknownOp))

	err = r.Handle(rec, &framer.Header{Op: 1}, []byte(`{`))
	assert.True(t, errors.Is(err, merr.ErrNetworkCodec))

	assert.Error(t, r.Handle(rec, nil, nil))
}

func TestRouter_NoAutoResponse(t *testing.T) {
	r := New[*recorder](serializer.NewJSONSerializer())
	handlerErr := errors.New("boom")
	require.NoError(t, r.Register(3, Route[*recorder]{
		NewRequest: func() any { return &echoReq{} },
		Handler: func(_ *recorder, req any) (any, error) {
			if req.(*echoReq).Text == "fail" {
				return nil, handlerErr
			}
			return &echoResp{}, nil
		},
	}))

	rec := &recorder{}
	require.NoError(t, r.Handle(rec, &framer.Header{Op: 3}, nil))
	assert.Empty(t, rec.sent)

	err := r.Handle(rec, &framer.Header{Op: 3}, []byte(`{"text":"fail"}`))
	assert.ErrorIs(t, err, handlerErr)
}
