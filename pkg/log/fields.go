package log

import (
	"net"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNamePlayer    = "player"
	FieldNameKey       = "key"
	FieldNameHost      = "host"
	FieldNameTick      = "tick"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldMessage 返回一个包含消息对象的 zap 字段。
func FieldMessage(msg zapcore.ObjectMarshaler) zap.Field {
	return zap.Object("message", msg)
}

// FieldPlayer 返回玩家展示名字段。
func FieldPlayer(name string) zap.Field {
	return zap.String(FieldNamePlayer, name)
}

// FieldKey 返回玩家 base37 身份键字段。
func FieldKey(key uint64) zap.Field {
	return zap.Uint64(FieldNameKey, key)
}

// FieldHost 返回远端地址的主机部分，解析失败时保留原始字符串。
func FieldHost(addr net.Addr) zap.Field {
	if addr == nil {
		return zap.Skip()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	return zap.String(FieldNameHost, host)
}

// FieldTick 返回世界 tick 序号字段。
func FieldTick(tick uint64) zap.Field {
	return zap.Uint64(FieldNameTick, tick)
}
