package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/game/storage"
	"github.com/lk2023060901/rs-world-go/internal/game/world"
	"github.com/lk2023060901/rs-world-go/internal/network/acceptor"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/compressor"
	"github.com/lk2023060901/rs-world-go/internal/network/connector"
	"github.com/lk2023060901/rs-world-go/internal/network/crypto"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/pkg/log"
)

type ServerSuite struct {
	suite.Suite

	ser    *serializer.JSONSerializer
	codec  codec.Codec
	store  *storage.MemoryStore
	world  *world.World
	server *Server
	cancel context.CancelFunc
	done   chan struct{}
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.ser = serializer.NewJSONSerializer()
	zstd, err := compressor.NewZstdCompressor()
	s.Require().NoError(err)
	enc, err := crypto.New(crypto.CipherAESGCM, strings.Repeat("ab", 48))
	s.Require().NoError(err)
	s.codec, err = codec.New(codec.Options{
		Framer:            framer.NewLengthPrefixedFramer(0),
		Serializer:        s.ser,
		Compressor:        zstd,
		Encryptor:         enc,
		EnableCompression: true,
		EnableEncryption:  true,
		MinCompressSize:   64,
	})
	s.Require().NoError(err)

	s.store = storage.NewMemoryStore()
	s.world, err = world.New(world.Config{TickInterval: 20 * time.Millisecond, Workers: 4}, world.Deps{
		Dispatcher: event.NewDispatcher(),
		Store:      s.store,
		Hasher:     storage.PlainHasher{},
		Serializer: s.ser,
	})
	s.Require().NoError(err)

	acc, err := acceptor.NewTCPAcceptor("127.0.0.1:0", s.codec, acceptor.Config{})
	s.Require().NoError(err)
	s.server, err = New(s.world, acc, Config{SendQueueSize: 256})
	s.Require().NoError(err)

	lg, _, err := log.InitTestLogger(s.T(), &log.Config{Level: "debug"})
	s.Require().NoError(err)
	s.bindLogger(&log.MLogger{Logger: lg})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.world.Run(ctx)
	}()
	go func() { _ = s.server.Serve(ctx) }()
}

func (s *ServerSuite) bindLogger(logger *log.MLogger) {
	s.world.SetLogger(logger)
	s.world.Presence().SetLogger(logger)
	s.world.Dispatcher().SetLogger(logger)
	s.server.SetLogger(logger)
}

func (s *ServerSuite) TearDownTest() {
	// 连接协程可能在测试结束后才退出，先切回全局 Logger
	s.bindLogger(log.With())
	s.cancel()
	<-s.done
	_ = s.server.Close()
	s.world.Close()
}

type client struct {
	t    *testing.T
	ser  serializer.Serializer
	conn connector.ClientConn
}

func (s *ServerSuite) dial() *client {
	dialer, err := connector.NewTCPConnector(connector.Config{Codec: s.codec})
	s.Require().NoError(err)
	conn, err := dialer.Dial(context.Background(), s.server.Addr().String())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return &client{t: s.T(), ser: s.ser, conn: conn}
}

// expect 读取帧直到遇到 op，并将负载解码到 out。
func (c *client) expect(op uint32, out any) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case pkt, ok := <-c.conn.Recv():
			require.True(c.t, ok, "connection closed while waiting for op %d", op)
			if pkt.Header.Op != op {
				continue
			}
			if out != nil {
				require.NoError(c.t, c.ser.Unmarshal(pkt.Payload, out))
			}
			return
		case <-timeout:
			require.FailNow(c.t, "timed out waiting for op", "op=%d", op)
		}
	}
}

func (c *client) login(name, password string) protocol.LoginCode {
	require.NoError(c.t, c.conn.Send(protocol.OpLogin, &protocol.LoginRequest{
		Username: name, Password: password, ClientVersion: "317",
	}))
	var resp protocol.LoginResponse
	c.expect(protocol.OpLoginResponse, &resp)
	return resp.Code
}

func (s *ServerSuite) TestLoginAndPrivateMessage() {
	alice := s.dial()
	s.Equal(protocol.LoginOk, alice.login("alice", "hunter2"))
	var welcome protocol.GameMessage
	alice.expect(protocol.OpGameMessage, &welcome)
	s.Equal("Welcome to RuneSource!", welcome.Text)

	bob := s.dial()
	s.Equal(protocol.LoginOk, bob.login("bob", "hunter2"))

	// bob 加 alice 为好友后收到 alice 的在线状态
	s.Require().NoError(bob.conn.Send(protocol.OpAddFriend, &protocol.TargetRequest{Key: identity.Encode("alice")}))
	var status protocol.FriendStatus
	bob.expect(protocol.OpFriendStatus, &status)
	s.Equal(identity.Encode("alice"), status.Key)
	s.Equal(uint16(1), status.World)

	s.Require().NoError(bob.conn.Send(protocol.OpPrivateMessage, &protocol.PrivateMessageRequest{
		Key: identity.Encode("alice"), Text: "hi alice",
	}))
	var pm protocol.PrivateMessage
	alice.expect(protocol.OpPrivateMessageRecv, &pm)
	s.Equal(identity.Encode("bob"), pm.SenderKey)
	s.Equal(uint64(1), pm.Sequence)
	s.Equal("hi alice", pm.Text)

	// alice 登出后 bob 收到离线推送
	s.Require().NoError(alice.conn.Send(protocol.OpLogout, &protocol.Empty{}))
	alice.expect(protocol.OpLogoutAck, nil)
	bob.expect(protocol.OpFriendStatus, &status)
	s.Equal(uint16(0), status.World)
}

func (s *ServerSuite) TestDuplicateLoginRejected() {
	first := s.dial()
	s.Equal(protocol.LoginOk, first.login("zezima", "hunter2"))

	second := s.dial()
	s.Equal(protocol.LoginAccountAlreadyOnline, second.login("zezima", "hunter2"))
}

func (s *ServerSuite) TestPlayerUpdateCarriesPublicChat() {
	alice := s.dial()
	s.Equal(protocol.LoginOk, alice.login("alice", "hunter2"))
	bob := s.dial()
	s.Equal(protocol.LoginOk, bob.login("bob", "hunter2"))

	s.Require().NoError(alice.conn.Send(protocol.OpPublicChat, &protocol.PublicChatRequest{Text: "hello world"}))
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var update protocol.PlayerUpdate
		bob.expect(protocol.OpPlayerUpdate, &update)
		for _, other := range update.Others {
			if other.Key == identity.Encode("alice") && other.PublicChat != nil {
				s.Equal("hello world", other.PublicChat.Text)
				return
			}
		}
	}
	s.Fail("public chat not broadcast")
}

func (s *ServerSuite) TestTeleportRequiresAdministrator() {
	s.Require().NoError(s.store.Save(context.Background(), &storage.Profile{
		Key:        identity.Encode("mod_ash"),
		Username:   "Mod_ash",
		Credential: "hunter2",
		Privilege:  player.PrivilegeAdministrator,
		Position:   player.DefaultSpawn,
	}))

	admin := s.dial()
	s.Equal(protocol.LoginOk, admin.login("mod_ash", "hunter2"))
	var region protocol.MapRegion
	admin.expect(protocol.OpMapRegion, &region)
	s.Equal(player.DefaultSpawn.X, region.X)

	s.Require().NoError(admin.conn.Send(protocol.OpTeleport, &protocol.TeleportRequest{X: 3000, Y: 3100}))
	admin.expect(protocol.OpMapRegion, &region)
	s.Equal(3000, region.X)
	s.Equal(3100, region.Y)

	bob := s.dial()
	s.Equal(protocol.LoginOk, bob.login("bob", "hunter2"))
	s.Require().NoError(bob.conn.Send(protocol.OpTeleport, &protocol.TeleportRequest{X: 3000, Y: 3100}))
	// 入站帧按序处理，收到好友状态时传送请求已被拒绝
	s.Require().NoError(bob.conn.Send(protocol.OpAddFriend, &protocol.TargetRequest{Key: identity.Encode("mod_ash")}))
	var status protocol.FriendStatus
	bob.expect(protocol.OpFriendStatus, &status)

	p, ok := s.world.Registry().Lookup(identity.Encode("bob"))
	s.Require().True(ok)
	s.Equal(player.DefaultSpawn, p.Position())
}
