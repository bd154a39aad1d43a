package storage

import (
	"context"
	"crypto/subtle"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Hasher 负责生成与校验保存的凭据。
type Hasher interface {
	Hash(password string) (string, error)
	Verify(credential, password string) bool
}

// BcryptHasher 使用 bcrypt 保存凭据。
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt")
	}
	return string(hashed), nil
}

func (h BcryptHasher) Verify(credential, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(credential), []byte(password)) == nil
}

// PlainHasher 以明文保存凭据，仅在关闭密码哈希时使用。
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return password, nil }

func (PlainHasher) Verify(credential, password string) bool {
	return subtle.ConstantTimeCompare([]byte(credential), []byte(password)) == 1
}

// LoadResult 为登录时读取档案的结果。
type LoadResult int

const (
	LoadSuccess LoadResult = iota
	LoadNotFound
	LoadInvalidCredentials
	LoadOtherSessionActive
)

func (r LoadResult) String() string {
	switch r {
	case LoadSuccess:
		return "Success"
	case LoadNotFound:
		return "NotFound"
	case LoadInvalidCredentials:
		return "InvalidCredentials"
	case LoadOtherSessionActive:
		return "OtherSessionActive"
	default:
		return "Unknown"
	}
}

// Authenticate 读取档案并校验密码。
//
// 档案不存在时返回 LoadNotFound 与 nil 档案；存储错误原样返回。
func Authenticate(ctx context.Context, store Store, hasher Hasher, key uint64, password string) (LoadResult, *Profile, error) {
	pr, err := store.Load(ctx, key)
	if errors.Is(err, merr.ErrProfileNotFound) {
		return LoadNotFound, nil, nil
	}
	if err != nil {
		return LoadInvalidCredentials, nil, err
	}
	if !hasher.Verify(pr.Credential, password) {
		return LoadInvalidCredentials, pr, nil
	}
	return LoadSuccess, pr, nil
}
