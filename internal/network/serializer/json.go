package serializer

import (
	"github.com/bytedance/sonic"
)

// JSONSerializer 基于 bytedance/sonic 实现 JSON 编解码。
type JSONSerializer struct {
	api sonic.API
}

// 编译期断言：确保 JSONSerializer 实现了 Serializer 接口。
var _ Serializer = (*JSONSerializer)(nil)

// NewJSONSerializer 创建一个与 encoding/json 行为兼容的 JSON 序列化器。
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{api: sonic.ConfigStd}
}

func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	if s == nil || s.api == nil {
		return sonic.ConfigStd.Marshal(v)
	}
	return s.api.Marshal(v)
}

func (s *JSONSerializer) Unmarshal(data []byte, v any) error {
	if s == nil || s.api == nil {
		return sonic.ConfigStd.Unmarshal(data, v)
	}
	return s.api.Unmarshal(data, v)
}
