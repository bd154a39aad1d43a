package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatMessage struct {
	Key  uint64 `json:"key"`
	Text string `json:"text"`
}

func TestJSONSerializer(t *testing.T) {
	s := NewJSONSerializer()
	data, err := s.Marshal(&chatMessage{Key: 37, Text: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":37,"text":"hello"}`, string(data))

	var out chatMessage
	require.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, chatMessage{Key: 37, Text: "hello"}, out)

	assert.Error(t, s.Unmarshal([]byte("{"), &out))
}

func TestZeroValueSerializer(t *testing.T) {
	var s JSONSerializer
	data, err := s.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}
