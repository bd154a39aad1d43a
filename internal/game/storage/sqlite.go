package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
	"github.com/lk2023060901/rs-world-go/pkg/util/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const schema = `CREATE TABLE IF NOT EXISTS players (
	player_key   INTEGER PRIMARY KEY,
	username     TEXT    NOT NULL,
	credential   TEXT    NOT NULL,
	privilege    INTEGER NOT NULL DEFAULT 0,
	x            INTEGER NOT NULL,
	y            INTEGER NOT NULL,
	z            INTEGER NOT NULL,
	privacy_mode INTEGER NOT NULL DEFAULT 0,
	friends      TEXT    NOT NULL DEFAULT '[]',
	ignores      TEXT    NOT NULL DEFAULT '[]',
	disabled     INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
)`

// SQLiteStore 将档案保存在 SQLite 中，好友与屏蔽列表以 JSON 文本列存储。
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite 打开（必要时创建）dsn 指向的数据库并初始化表结构。
//
// dsn 为文件路径或 ":memory:"。
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, merr.WrapErrParameterMissing("storage.dsn")
	}
	if dsn != ":memory:" {
		dsn = filepath.Clean(dsn)
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, merr.WrapErrStorageFailed(err, "create data dir")
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, merr.WrapErrStorageFailed(err, "open sqlite")
	}
	// 单连接保证 :memory: 数据库在整个生命周期内共享。
	db.SetMaxOpenConns(1)

	err = retry.Do(ctx, func() error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, schema)
		return err
	}, retry.Attempts(3), retry.Sleep(100*time.Millisecond))
	if err != nil {
		_ = db.Close()
		return nil, merr.WrapErrStorageFailed(err, "init schema")
	}

	log.Info("sqlite store opened", zap.String("dsn", dsn))
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key uint64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT username, credential, privilege, x, y, z, privacy_mode,
		friends, ignores, disabled, created_at, updated_at FROM players WHERE player_key = ?`, int64(key))

	var (
		pr                   = &Profile{Key: key}
		privilege, mode      int
		friends, ignores     string
		createdAt, updatedAt int64
	)
	err := row.Scan(&pr.Username, &pr.Credential, &privilege, &pr.Position.X, &pr.Position.Y, &pr.Position.Z,
		&mode, &friends, &ignores, &pr.Disabled, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, merr.WrapErrProfileNotFound(identity.Decode(key))
	}
	if err != nil {
		return nil, merr.WrapErrStorageFailed(err, "load profile")
	}

	pr.Privilege = player.Privilege(privilege)
	pr.PrivacyMode = player.PrivacyMode(mode)
	pr.CreatedAt = time.UnixMilli(createdAt)
	pr.UpdatedAt = time.UnixMilli(updatedAt)
	if err := json.UnmarshalFromString(friends, &pr.Friends); err != nil {
		return nil, merr.WrapErrStorageFailed(err, "decode friends")
	}
	if err := json.UnmarshalFromString(ignores, &pr.Ignores); err != nil {
		return nil, merr.WrapErrStorageFailed(err, "decode ignores")
	}
	return pr, nil
}

func (s *SQLiteStore) Save(ctx context.Context, pr *Profile) error {
	if pr == nil || pr.Key == 0 {
		return merr.WrapErrParameterMissing("profile.key")
	}
	friends, err := json.MarshalToString(nonNil(pr.Friends))
	if err != nil {
		return merr.WrapErrStorageFailed(err, "encode friends")
	}
	ignores, err := json.MarshalToString(nonNil(pr.Ignores))
	if err != nil {
		return merr.WrapErrStorageFailed(err, "encode ignores")
	}

	updatedAt := pr.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	createdAt := pr.CreatedAt
	if createdAt.IsZero() {
		createdAt = updatedAt
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO players (player_key, username, credential, privilege, x, y, z,
		privacy_mode, friends, ignores, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_key) DO UPDATE SET
			username = excluded.username,
			credential = excluded.credential,
			privilege = excluded.privilege,
			x = excluded.x, y = excluded.y, z = excluded.z,
			privacy_mode = excluded.privacy_mode,
			friends = excluded.friends,
			ignores = excluded.ignores,
			disabled = excluded.disabled,
			updated_at = excluded.updated_at`,
		int64(pr.Key), pr.Username, pr.Credential, int(pr.Privilege),
		pr.Position.X, pr.Position.Y, pr.Position.Z, int(pr.PrivacyMode),
		friends, ignores, pr.Disabled, createdAt.UnixMilli(), updatedAt.UnixMilli())
	if err != nil {
		return merr.WrapErrStorageFailed(err, "save profile")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil(keys []uint64) []uint64 {
	if keys == nil {
		return []uint64{}
	}
	return keys
}
