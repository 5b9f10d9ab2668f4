// Package session 客户端会话控制器
//
// 状态流转：
//
//	Disconnected ──Connect/Resume──▶ Connecting ──登录成功──▶ Authenticated
//	                                     │
//	                                     └──未注册──▶ AwaitingRole ──ChooseRole──▶ Authenticated
//
// 任意状态下 Logout 回到 Disconnected。每次 Connect/Resume/Logout 都会推进代数，
// 代数变化后才返回的远端结果一律丢弃（ErrSuperseded）。
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"biovault/internal/client/apiclient"
	"biovault/internal/client/tokenstore"
	"biovault/internal/shared/model"
)

// State 会话状态
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingRole
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingRole:
		return "awaiting_role"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrSuperseded 结果返回前会话已被登出或重新连接
	ErrSuperseded = errors.New("session: superseded by a newer action")
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("session: operation not allowed in current state")
	// ErrInvalidRole 角色不在 patient/researcher 之内
	ErrInvalidRole = errors.New("session: invalid role")
)

// WalletProvider 钱包提供方
type WalletProvider interface {
	// Connect 交互式连接，返回钱包地址
	Connect(ctx context.Context) (string, error)
	// Address 已存在的连接；未连接时 ok 为 false
	Address(ctx context.Context) (address string, ok bool, err error)
	// Disconnect 断开连接
	Disconnect(ctx context.Context) error
}

// Backend 会话依赖的服务端接口，由 apiclient.Client 实现
type Backend interface {
	Login(ctx context.Context, address string) (*apiclient.Session, error)
	Register(ctx context.Context, address, role string) (*apiclient.Session, error)
	ProtectedData(ctx context.Context, token string) ([]model.Dataset, error)
}

var _ Backend = (*apiclient.Client)(nil)

// Controller 会话控制器，可并发调用
type Controller struct {
	wallet  WalletProvider
	backend Backend
	tokens  tokenstore.Store

	mu      sync.Mutex
	state   State
	gen     uint64
	address string
	user    *model.User
	token   string
}

// New 创建控制器；tokens 为 nil 时使用内存存储
func New(wallet WalletProvider, backend Backend, tokens tokenstore.Store) *Controller {
	if tokens == nil {
		tokens = tokenstore.NewMemoryStore()
	}
	return &Controller{wallet: wallet, backend: backend, tokens: tokens}
}

// State 当前状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Address 当前钱包地址（AwaitingRole 或 Authenticated 时非空）
func (c *Controller) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

// User 已认证用户的副本
func (c *Controller) User() (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return model.User{}, false
	}
	return *c.user, true
}

// Token 当前令牌
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Connect 连接钱包并登录；未注册时进入 AwaitingRole
//
// 已认证时直接返回，已注册钱包永远不会被要求重新选择角色。
func (c *Controller) Connect(ctx context.Context) (State, error) {
	gen, ok := c.begin()
	if !ok {
		return StateAuthenticated, nil
	}

	address, err := c.wallet.Connect(ctx)
	if err != nil {
		return c.abort(gen, fmt.Errorf("wallet connect: %w", err))
	}
	return c.resolve(ctx, gen, address)
}

// Resume 钱包已连接时走同样的登录流程，不再提示钱包；未连接时保持 Disconnected
func (c *Controller) Resume(ctx context.Context) (State, error) {
	gen, ok := c.begin()
	if !ok {
		return StateAuthenticated, nil
	}

	address, connected, err := c.wallet.Address(ctx)
	if err != nil {
		return c.abort(gen, fmt.Errorf("wallet address: %w", err))
	}
	if !connected || address == "" {
		return c.abort(gen, nil)
	}
	return c.resolve(ctx, gen, address)
}

// ChooseRole 为未注册地址注册角色，仅在 AwaitingRole 状态有效
func (c *Controller) ChooseRole(ctx context.Context, role string) (State, error) {
	if !model.UserRole(role).Valid() {
		return c.State(), ErrInvalidRole
	}

	c.mu.Lock()
	if c.state != StateAwaitingRole {
		state := c.state
		c.mu.Unlock()
		return state, ErrInvalidState
	}
	gen := c.gen
	address := c.address
	c.state = StateConnecting
	c.mu.Unlock()

	sess, err := c.backend.Register(ctx, address, role)
	if apiclient.IsAlreadyExists(err) {
		// 期间已被注册（例如另一个客户端），按已注册钱包处理
		return c.resolve(ctx, gen, address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return c.state, ErrSuperseded
	}
	if err != nil {
		c.state = StateAwaitingRole
		return c.state, fmt.Errorf("register: %w", err)
	}
	c.authenticate(address, sess)
	return c.state, nil
}

// Logout 断开钱包、清除内存状态与持久化令牌
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.state = StateDisconnected
	c.address = ""
	c.user = nil
	c.token = ""
	c.mu.Unlock()

	var errs []error
	if err := c.wallet.Disconnect(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wallet disconnect: %w", err))
	}
	if err := c.tokens.Clear(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProtectedData 以当前令牌获取研究员数据集
func (c *Controller) ProtectedData(ctx context.Context) ([]model.Dataset, error) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}
	gen := c.gen
	token := c.token
	c.mu.Unlock()

	items, err := c.backend.ProtectedData(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil, ErrSuperseded
	}
	return items, err
}

// begin 进入 Connecting 并推进代数；已认证时返回 false
func (c *Controller) begin() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAuthenticated {
		return c.gen, false
	}
	c.gen++
	c.state = StateConnecting
	c.address = ""
	return c.gen, true
}

// abort 连接失败回到 Disconnected
func (c *Controller) abort(gen uint64, err error) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return c.state, ErrSuperseded
	}
	c.state = StateDisconnected
	return c.state, err
}

// resolve 登录地址：成功进入 Authenticated，未注册进入 AwaitingRole
func (c *Controller) resolve(ctx context.Context, gen uint64, address string) (State, error) {
	sess, err := c.backend.Login(ctx, address)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return c.state, ErrSuperseded
	}
	switch {
	case apiclient.IsNotFound(err):
		c.address = address
		c.state = StateAwaitingRole
	case err != nil:
		c.state = StateDisconnected
		return c.state, fmt.Errorf("login: %w", err)
	default:
		c.authenticate(address, sess)
	}
	return c.state, nil
}

// authenticate 调用方持有锁
func (c *Controller) authenticate(address string, sess *apiclient.Session) {
	u := sess.User
	c.address = address
	c.user = &u
	c.token = sess.Token
	c.state = StateAuthenticated
	if err := c.tokens.Save(sess.Token); err != nil {
		log.Printf("[session.token.save_failed] address=%s error=%v", address, err)
	}
}
