package player

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

type fakeConn struct {
	id     uint64
	mu     sync.Mutex
	sent   []uint32
	closed bool
}

func (c *fakeConn) ID() uint64 { return c.id }

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 50000}
}

func (c *fakeConn) Send(op uint32, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, op)
	return nil
}

func (c *fakeConn) Flush() error { return nil }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestPlayer_Lifecycle(t *testing.T) {
	now := time.Now()
	p := New(&fakeConn{id: 9}, now)

	assert.Equal(t, uint64(9), p.ID())
	assert.Equal(t, "10.0.0.1", p.Host())
	assert.Equal(t, StageConnecting, p.Stage())
	assert.Equal(t, "Client(10.0.0.1)", p.String())

	assert.False(t, p.Advance(StageLoggingIn, StageLoggedIn))
	assert.True(t, p.Advance(StageConnecting, StageLoggingIn))
	assert.False(t, p.EverLoggedIn())
	assert.True(t, p.Advance(StageLoggingIn, StageLoggedIn))
	assert.True(t, p.EverLoggedIn())

	p.SetIdentity(42, "Zezima", "secret", PrivilegeModerator, now)
	assert.Equal(t, "Player(Zezima@10.0.0.1)", p.String())
	assert.Equal(t, PrivilegeModerator, p.Privilege())

	p.SetStage(StageLoggedOut)
	assert.Equal(t, StageLoggedOut, p.Stage())
	assert.Equal(t, "LoggedOut", p.Stage().String())
}

func TestPlayer_Liveness(t *testing.T) {
	start := time.Now()
	p := New(&fakeConn{}, start)

	assert.Equal(t, 5001*time.Millisecond, p.IdleFor(start.Add(5001*time.Millisecond)))

	p.Touch(start.Add(3 * time.Second))
	assert.Equal(t, 2*time.Second, p.IdleFor(start.Add(5*time.Second)))
}

func TestPlayer_Inbound(t *testing.T) {
	start := time.Now()
	p := New(&fakeConn{}, start)

	for i := 0; i < MaxInbound; i++ {
		require.True(t, p.Enqueue(&framer.Envelope{Header: &framer.Header{Op: uint32(i)}}, start.Add(time.Second)))
	}
	assert.False(t, p.Enqueue(&framer.Envelope{Header: &framer.Header{}}, start.Add(time.Second)))
	assert.Equal(t, time.Second, p.IdleFor(start.Add(2*time.Second)))

	frames := p.Drain()
	assert.Len(t, frames, MaxInbound)
	assert.Equal(t, uint32(0), frames[0].Header.Op)
	assert.Empty(t, p.Drain())
}

func TestPlayer_Teleport(t *testing.T) {
	conn := &fakeConn{}
	p := New(conn, time.Now())
	p.SetMovement(2, 3)

	require.NoError(t, p.Teleport(Position{X: 3000, Y: 3000, Z: 1}))
	assert.True(t, p.NeedsPlacement())
	assert.Equal(t, Position{X: 3000, Y: 3000, Z: 1}, p.Position())
	assert.Equal(t, []uint32{protocol.OpMapRegion}, conn.sent)

	block := p.UpdateBlock()
	assert.Equal(t, int8(-1), block.Primary)

	p.ResetTick()
	assert.False(t, p.NeedsPlacement())
}

func TestPlayer_UpdatableFor(t *testing.T) {
	now := time.Now()
	a := New(&fakeConn{id: 1}, now)
	b := New(&fakeConn{id: 2}, now)
	a.SetStage(StageLoggedIn)

	assert.False(t, a.UpdatableFor(b), "peer not logged in")
	b.SetStage(StageLoggedIn)
	assert.True(t, a.UpdatableFor(b))
	assert.False(t, a.UpdatableFor(a))

	b.SetPosition(Position{X: DefaultSpawn.X + 16, Y: DefaultSpawn.Y})
	assert.False(t, a.UpdatableFor(b), "out of view")

	b.SetPosition(Position{X: DefaultSpawn.X + 15, Y: DefaultSpawn.Y - 15})
	assert.True(t, a.UpdatableFor(b))

	b.SetPosition(Position{X: DefaultSpawn.X, Y: DefaultSpawn.Y, Z: 1})
	assert.False(t, a.UpdatableFor(b), "different plane")

	require.NoError(t, b.Teleport(DefaultSpawn))
	assert.False(t, a.UpdatableFor(b), "needs placement")
}

func TestUpdateContext(t *testing.T) {
	c := &UpdateContext{}
	assert.False(t, c.Required())

	c.SetForceChat("first")
	c.SetForceChat("second")
	c.SetAnimation(protocol.Animation{ID: 866})
	c.SetAppearanceRequired()
	assert.True(t, c.Has(FlagForceChat))
	assert.True(t, c.Has(FlagAppearance))
	assert.False(t, c.Has(FlagGraphics))

	var block protocol.UpdateBlock
	c.Fill(&block)
	require.NotNil(t, block.ForceChat)
	assert.Equal(t, "second", *block.ForceChat)
	require.NotNil(t, block.Animation)
	assert.Equal(t, 866, block.Animation.ID)
	assert.Nil(t, block.Graphics)
	assert.Nil(t, block.PrimaryHit)

	c.Clear()
	assert.False(t, c.Required())
	var empty protocol.UpdateBlock
	c.Fill(&empty)
	assert.Nil(t, empty.ForceChat)
}

func TestPlayer_UpdateBlockAppearance(t *testing.T) {
	p := New(&fakeConn{}, time.Now())
	p.SetIdentity(7, "Bob", "", PrivilegeAdministrator, time.Now())
	p.Update().SetAppearanceRequired()
	p.Update().SetPrimaryHit(protocol.Hit{Damage: 3})

	block := p.UpdateBlock()
	assert.Equal(t, uint64(7), block.Key)
	require.NotNil(t, block.Appearance)
	assert.Equal(t, "Bob", block.Appearance.Name)
	assert.Equal(t, uint8(2), block.Appearance.Privilege)
	require.NotNil(t, block.PrimaryHit)
	assert.Equal(t, 3, block.PrimaryHit.Damage)
}

func TestRelations(t *testing.T) {
	r := NewRelations()
	assert.Equal(t, PrivacyPublic, r.Mode())

	added, err := r.AddFriend(1, "a")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = r.AddFriend(1, "a")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = r.AddIgnore(1, "a")
	assert.ErrorIs(t, err, merr.ErrRelationConflict)

	added, err = r.AddIgnore(2, "b")
	require.NoError(t, err)
	assert.True(t, added)
	_, err = r.AddFriend(2, "b")
	assert.ErrorIs(t, err, merr.ErrRelationConflict)

	assert.True(t, r.RemoveIgnore(2))
	assert.False(t, r.RemoveIgnore(2))
	assert.True(t, r.RemoveFriend(1))
	assert.False(t, r.RemoveFriend(1))
}

func TestRelations_Capacity(t *testing.T) {
	r := NewRelations()
	for i := 1; i <= MaxFriends; i++ {
		_, err := r.AddFriend(uint64(i), "f")
		require.NoError(t, err)
	}
	_, err := r.AddFriend(uint64(MaxFriends+1), "f")
	assert.ErrorIs(t, err, merr.ErrRelationListFull)
	assert.Equal(t, MaxFriends, r.FriendCount())

	for i := 1; i <= MaxIgnores; i++ {
		_, err := r.AddIgnore(uint64(1000+i), "i")
		require.NoError(t, err)
	}
	_, err = r.AddIgnore(5000, "i")
	assert.ErrorIs(t, err, merr.ErrRelationListFull)
	assert.Len(t, r.IgnoredKeys(), MaxIgnores)
}

func TestRelations_AllowsObserver(t *testing.T) {
	r := NewRelations()
	assert.True(t, r.AllowsObserver(5))

	_, changed := r.SetMode(PrivacyFriendsOnly)
	assert.True(t, changed)
	assert.False(t, r.AllowsObserver(5))
	_, _ = r.AddFriend(5, "five")
	assert.True(t, r.AllowsObserver(5))

	prev, changed := r.SetMode(PrivacyFriendsOnly)
	assert.False(t, changed)
	assert.Equal(t, PrivacyFriendsOnly, prev)

	r.SetMode(PrivacyPrivate)
	assert.False(t, r.AllowsObserver(5))

	r.SetMode(PrivacyPublic)
	_, _ = r.AddIgnore(6, "six")
	assert.False(t, r.AllowsObserver(6))
	assert.True(t, r.AllowsObserver(7))
}

func TestRelations_Restore(t *testing.T) {
	r := NewRelations()
	r.Restore([]uint64{1, 2, 2}, []uint64{2, 3}, PrivacyMode(9))

	assert.ElementsMatch(t, []uint64{1, 2}, r.FriendKeys())
	assert.ElementsMatch(t, []uint64{3}, r.IgnoredKeys())
	assert.Equal(t, PrivacyPublic, r.Mode())
}
