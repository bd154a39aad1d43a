package world

import (
	"context"
	"fmt"
	"time"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/game/storage"
	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/conc"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// WelcomeFormat 为登录成功后的欢迎语。
const WelcomeFormat = "Welcome to %s!"

// sidebarInterfaces 为登录时依次下发的侧边栏界面，下标即侧边栏编号，0 号不下发。
var sidebarInterfaces = []int{-1, 3917, 638, 3213, 1644, 5608, 1151, -1, 5065, 5715, 2449, 4445, 147, 6299}

// credentials 为凭据校验的结果，由凭据协程池产生，在 tick 协程上应用。
type credentials struct {
	key        uint64
	username   string
	result     storage.LoadResult
	profile    *storage.Profile
	newAccount bool
	// rejected 非零时直接以该响应码拒绝登录。
	rejected protocol.LoginCode
	err      error
}

type pendingLogin struct {
	player *player.Player
	future *conc.Future[*credentials]
}

func parseClientVersions(expr string) (semver.Range, error) {
	r, err := semver.ParseRange(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse client versions %q", expr)
	}
	return r, nil
}

// beginLogin 将连接推进到 LoggingIn 并提交凭据校验。
func (w *World) beginLogin(p *player.Player, req *protocol.LoginRequest) error {
	if !p.Advance(player.StageConnecting, player.StageLoggingIn) {
		return merr.WrapErrSessionStage(player.StageConnecting, p.Stage())
	}

	var future *conc.Future[*credentials]
	if v, err := semver.ParseTolerant(req.ClientVersion); err != nil || !w.versions(v) {
		cred := &credentials{username: req.Username, rejected: protocol.LoginGameUpdated}
		future = conc.Go(func() (*credentials, error) { return cred, nil })
	} else {
		ctx := w.loginContext(context.Background(), p, req.Username)
		username, password := req.Username, req.Password
		future = w.credentialPool.Submit(func() (*credentials, error) {
			return w.checkCredentials(ctx, username, password), nil
		})
	}

	w.pendingMu.Lock()
	w.pending = append(w.pending, pendingLogin{player: p, future: future})
	w.pendingMu.Unlock()
	return nil
}

// loginContext 返回携带登录模块与玩家字段的上下文。
func (w *World) loginContext(ctx context.Context, p *player.Player, username string) context.Context {
	ctx = log.WithModule(log.Bind(ctx, w.Logger()), "login")
	return log.WithFields(ctx, log.FieldPlayer(username), zap.String(log.FieldNameHost, p.Host()))
}

// checkCredentials 在凭据协程池中读取档案并校验密码，新账号在此生成凭据。
func (w *World) checkCredentials(ctx context.Context, username, password string) *credentials {
	start := time.Now()
	defer func() {
		metrics.WorldCredentialLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	cred := &credentials{username: username}
	if err := identity.ValidateUsername(username); err != nil {
		cred.result = storage.LoadInvalidCredentials
		return cred
	}
	cred.key = identity.Encode(username)

	loadCtx, cancel := context.WithTimeout(ctx, w.cfg.IdleTimeout)
	defer cancel()
	result, pr, err := storage.Authenticate(loadCtx, w.store, w.hasher, cred.key, password)
	log.Ctx(ctx).Debug("profile loaded", zap.Stringer("result", result))
	if err != nil {
		cred.result, cred.err = storage.LoadInvalidCredentials, err
		return cred
	}
	cred.result, cred.profile = result, pr
	if result != storage.LoadNotFound {
		return cred
	}

	if err := identity.ValidatePassword(password); err != nil {
		log.Ctx(ctx).Debug("new account rejected", zap.Error(err))
		cred.result = storage.LoadInvalidCredentials
		return cred
	}
	hashed, err := w.hasher.Hash(password)
	if err != nil {
		cred.result, cred.err = storage.LoadInvalidCredentials, err
		return cred
	}
	now := time.Now()
	cred.result = storage.LoadSuccess
	cred.newAccount = true
	cred.profile = &storage.Profile{
		Key:        cred.key,
		Username:   identity.Display(cred.key),
		Credential: hashed,
		Privilege:  player.PrivilegeRegular,
		Position:   player.DefaultSpawn,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return cred
}

// applyLogins 在 tick 协程上应用已完成的凭据校验。
func (w *World) applyLogins(ctx context.Context, now time.Time) {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = nil
	w.pendingMu.Unlock()

	var waiting []pendingLogin
	for _, pl := range pending {
		if !pl.future.Done() {
			waiting = append(waiting, pl)
			continue
		}
		cred, err := pl.future.Await()
		if err != nil {
			cred = &credentials{result: storage.LoadInvalidCredentials, err: err}
		}
		w.completeLogin(ctx, pl.player, cred, now)
	}

	if len(waiting) > 0 {
		w.pendingMu.Lock()
		w.pending = append(waiting, w.pending...)
		w.pendingMu.Unlock()
	}
}

// evaluate 按优先级计算登录响应码，靠后的检查覆盖靠前的结果。
func (w *World) evaluate(p *player.Player, cred *credentials, now time.Time) protocol.LoginCode {
	if cred.rejected != 0 {
		return cred.rejected
	}

	code := protocol.LoginOk
	if w.registry.Count() >= w.cfg.MaxPlayers {
		code = protocol.LoginWorldFull
	}
	if _, online := w.registry.Lookup(cred.key); online {
		code = protocol.LoginAccountAlreadyOnline
	}
	if cred.result == storage.LoadOtherSessionActive {
		code = protocol.LoginAccountAlreadyOnline
	}
	switch {
	case cred.result == storage.LoadInvalidCredentials:
		code = protocol.LoginInvalidCredentials
		w.throttle.Record(p.Host(), now)
	case cred.profile != nil && cred.profile.Disabled:
		code = protocol.LoginAccountDisabled
	}
	if w.gateway.Count(p.Host()) > w.cfg.MaxConsPerHost {
		code = protocol.LoginLimitExceeded
	}
	if w.throttle.Throttled(p.Host(), now) {
		code = protocol.LoginAttemptsExceeded
	}
	return code
}

var testHookLoginRegistered = func(*player.Player) {}

func (w *World) completeLogin(ctx context.Context, p *player.Player, cred *credentials, now time.Time) {
	if p.Stage() != player.StageLoggingIn {
		// 校验期间连接已断开
		return
	}

	ctx = w.loginContext(ctx, p, cred.username)
	logger := log.Ctx(ctx)
	if cred.err != nil {
		logger.Warn("credential check failed", zap.Error(cred.err))
	}

	code := w.evaluate(p, cred, now)
	if code == protocol.LoginOk {
		pr := cred.profile
		p.SetIdentity(pr.Key, pr.Username, pr.Credential, pr.Privilege, pr.CreatedAt)
		pr.Apply(p)
		if err := w.registry.Register(p); err != nil {
			code = protocol.LoginAccountAlreadyOnline
		}
	}
	metrics.WorldLoginResults.WithLabelValues(w.worldLabel, code.String()).Inc()

	if code != protocol.LoginOk {
		logger.Info("login rejected", zap.Stringer("code", code))
		_ = p.Send(protocol.OpLoginResponse, &protocol.LoginResponse{Code: code})
		p.SetStage(player.StageLoggedOut)
		_ = p.Flush()
		_ = p.Disconnect()
		return
	}

	testHookLoginRegistered(p)
	p.Touch(now)
	if !p.Advance(player.StageLoggingIn, player.StageLoggedIn) {
		// 注册后、晋升前连接已断开
		w.registry.Unregister(p)
		logger.Info("client left during login")
		return
	}
	metrics.WorldPlayersOnline.WithLabelValues(w.worldLabel).Set(float64(w.registry.Count()))

	_ = p.Send(protocol.OpLoginResponse, &protocol.LoginResponse{
		Code:      protocol.LoginOk,
		Privilege: uint8(p.Privilege()),
	})
	w.sendInitialState(p)
	p.Update().SetAppearanceRequired()
	_ = p.SendMessage(fmt.Sprintf(WelcomeFormat, w.cfg.Name))

	if cred.newAccount && w.saver != nil {
		w.saver.Save(cred.profile)
	}
	logger.Info("player logged in", zap.Bool("newAccount", cred.newAccount), zap.Int("online", w.registry.Count()))
	w.dispatcher.Dispatch(ctx, &event.PlayerLoggedOn{Player: p, NewAccount: cred.newAccount})
}

// sendInitialState 下发登录后的初始界面与状态。
func (w *World) sendInitialState(p *player.Player) {
	_ = p.SendMapRegion()
	_ = p.Send(protocol.OpInventory, &protocol.Inventory{})
	_ = p.Send(protocol.OpSkills, &protocol.Skills{})
	_ = p.Send(protocol.OpEquipment, &protocol.Equipment{})
	_ = p.Send(protocol.OpWeaponInterface, &protocol.WeaponInterface{ID: 5855})
	for tab := 1; tab < len(sidebarInterfaces); tab++ {
		_ = p.Send(protocol.OpSidebarInterface, &protocol.SidebarInterface{Tab: tab, ID: sidebarInterfaces[tab]})
	}
	_ = p.Send(protocol.OpRunEnergy, &protocol.RunEnergy{Energy: 100})
	_ = p.Send(protocol.OpResetButtons, &protocol.Empty{})
}
