// Package identity 提供玩家用户名与 64 位身份键之间的互相转换，以及用户名、密码的格式校验。
//
// 身份键使用 base-37 编码：大小写不敏感，空格与下划线等价，最多 12 个字符。
package identity

import (
	"strings"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

const (
	// MaxNameLength 为用户名的最大长度。
	MaxNameLength = 12

	MinPasswordLength = 5
	MaxPasswordLength = 20
)

// alphabet 为 base-37 的解码字母表，0 对应空格（以下划线表示）。
const alphabet = "_abcdefghijklmnopqrstuvwxyz0123456789"

// Encode 将用户名编码为身份键，超出 MaxNameLength 的部分被忽略。
func Encode(name string) uint64 {
	var key uint64
	for i := 0; i < len(name) && i < MaxNameLength; i++ {
		c := name[i]
		key *= 37
		switch {
		case c >= 'A' && c <= 'Z':
			key += uint64(1 + c - 'A')
		case c >= 'a' && c <= 'z':
			key += uint64(1 + c - 'a')
		case c >= '0' && c <= '9':
			key += uint64(27 + c - '0')
		}
	}
	for key != 0 && key%37 == 0 {
		key /= 37
	}
	return key
}

// Decode 将身份键还原为小写、以下划线表示空格的用户名。
func Decode(key uint64) string {
	if key == 0 {
		return ""
	}
	buf := make([]byte, 0, MaxNameLength)
	for key != 0 && len(buf) < MaxNameLength {
		buf = append(buf, alphabet[key%37])
		key /= 37
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Normalize 返回用户名的规范形式：小写、下划线替换为空格、去除首尾空白。
func Normalize(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(name), "_", " "))
}

// Display 将身份键格式化为展示用的名字，每个单词首字母大写。
func Display(key uint64) string {
	words := strings.Fields(strings.ReplaceAll(Decode(key), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ValidateUsername 校验用户名：1~12 个字符，仅允许字母、数字、空格与下划线。
func ValidateUsername(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return merr.WrapErrPlayerInvalidName(name, "length must be in [1, 12]")
	}
	if strings.TrimSpace(strings.ReplaceAll(name, "_", " ")) == "" {
		return merr.WrapErrPlayerInvalidName(name, "blank")
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return merr.WrapErrPlayerInvalidName(name, "illegal character")
		}
	}
	return nil
}

// ValidatePassword 校验密码：5~20 个可打印 ASCII 字符。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return merr.WrapErrPlayerInvalidPassword("length must be in [5, 20]")
	}
	for i := 0; i < len(password); i++ {
		if password[i] < 0x20 || password[i] > 0x7e {
			return merr.WrapErrPlayerInvalidPassword("illegal character")
		}
	}
	return nil
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == ' ' || c == '_'
}
