// Package user 钱包用户注册、登录与查询
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biovault/internal/apiserver/auth"
	"biovault/internal/apiserver/metrics"
	"biovault/internal/shared/apperr"
	"biovault/internal/shared/cache"
	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"
	"biovault/internal/shared/wallet"
	"biovault/pkg/logging"
)

// 对外错误文案
const (
	MsgMissingRegister = "Please provide wallet address and role"
	MsgMissingLogin    = "Please provide wallet address"
	MsgInvalidRole     = "Invalid role"
	MsgInvalidAddress  = "Invalid wallet address"
	MsgAlreadyExists   = "User already exists"
	MsgNotFound        = "User not found"
)

// Options 可选依赖
type Options struct {
	Cache         cache.UserCache  // 默认 NoOpCache
	Metrics       *metrics.Metrics // 可为 nil
	Logger        *logging.Logger
	StrictAddress bool // 启用 EIP-55 地址校验
}

// Service 注册/登录服务，无状态，可并发调用
//
// 唯一性由存储层约束保证：Register 的存在性预检查只用于快速返回，
// 并发竞争时以 CreateUser 返回的 storage.ErrDuplicate 为准。
type Service struct {
	store   storage.UserStore
	issuer  *auth.Issuer
	cache   cache.UserCache
	metrics *metrics.Metrics
	logger  *logging.Logger
	strict  bool
}

// NewService 创建服务
func NewService(store storage.UserStore, issuer *auth.Issuer, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoOpCache()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default("user")
	}
	return &Service{
		store:   store,
		issuer:  issuer,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		strict:  opts.StrictAddress,
	}
}

// Lookup 按钱包地址查询用户
func (s *Service) Lookup(ctx context.Context, address string) (*model.User, error) {
	address = normalizeAddress(address)
	if address == "" {
		return nil, apperr.NotFound(MsgNotFound)
	}
	if err := s.checkAddress(address); err != nil {
		return nil, err
	}

	u, err := s.find(ctx, address)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return u, nil
}

// Register 创建用户并签发令牌
func (s *Service) Register(ctx context.Context, address, role string) (*model.User, string, error) {
	address = normalizeAddress(address)
	role = strings.TrimSpace(role)
	if address == "" || role == "" {
		return nil, "", apperr.Validation(MsgMissingRegister)
	}
	userRole := model.UserRole(role)
	if !userRole.Valid() {
		return nil, "", apperr.Validation(MsgInvalidRole)
	}
	if err := s.checkAddress(address); err != nil {
		return nil, "", err
	}
	ctx = logging.WithValue(ctx, logging.WalletAddressKey, address)

	existing, err := s.find(ctx, address)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		s.logger.WithContext(ctx).AuthEventLog("register", address, role, errors.New("already exists"))
		return nil, "", apperr.Conflict(MsgAlreadyExists)
	}

	u := &model.User{WalletAddress: address, Role: userRole}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.WithContext(ctx).AuthEventLog("register", address, role, err)
			return nil, "", apperr.Conflict(MsgAlreadyExists)
		}
		return nil, "", apperr.Internal(fmt.Errorf("create user: %w", err))
	}

	token, err := s.issuer.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, "", apperr.Internal(fmt.Errorf("issue token: %w", err))
	}

	s.remember(ctx, u)
	s.metrics.RecordRegistration(role)
	s.logger.WithContext(ctx).AuthEventLog("register", address, role, nil)
	return u, token, nil
}

// Login 为已注册地址签发新令牌
func (s *Service) Login(ctx context.Context, address string) (*model.User, string, error) {
	address = normalizeAddress(address)
	if address == "" {
		return nil, "", apperr.Validation(MsgMissingLogin)
	}
	if err := s.checkAddress(address); err != nil {
		return nil, "", err
	}
	ctx = logging.WithValue(ctx, logging.WalletAddressKey, address)

	u, err := s.find(ctx, address)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, "", err
	}
	if u == nil {
		s.metrics.RecordLogin(metrics.LoginNotFound)
		s.logger.WithContext(ctx).AuthEventLog("login", address, "", errors.New("user not found"))
		return nil, "", apperr.NotFound(MsgNotFound)
	}

	token, err := s.issuer.Issue(u.ID, string(u.Role))
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, "", apperr.Internal(fmt.Errorf("issue token: %w", err))
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	s.logger.WithContext(ctx).AuthEventLog("login", address, string(u.Role), nil)
	return u, token, nil
}

// find 读穿缓存查询；缓存故障降级为直接查库
func (s *Service) find(ctx context.Context, address string) (*model.User, error) {
	if u, err := s.cache.GetUser(ctx, address); err != nil {
		s.metrics.RecordCache(metrics.CacheError)
		s.logger.WithContext(ctx).WithError(err).Warn("user cache read failed")
	} else if u != nil {
		s.metrics.RecordCache(metrics.CacheHit)
		return u, nil
	} else {
		s.metrics.RecordCache(metrics.CacheMiss)
	}

	u, err := s.store.GetUserByWallet(ctx, address)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get user by wallet: %w", err))
	}
	if u != nil {
		s.remember(ctx, u)
	}
	return u, nil
}

func (s *Service) remember(ctx context.Context, u *model.User) {
	if err := s.cache.SetUser(ctx, u); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("user cache write failed")
	}
}

// normalizeAddress 去掉首尾空白后即为存储键
//
// 首尾空白视为输入噪声而非地址的一部分，" 0xABC " 与 "0xABC" 是同一用户；
// 除此之外按原样保存，不做大小写或校验和规范化。
func normalizeAddress(address string) string {
	return strings.TrimSpace(address)
}

func (s *Service) checkAddress(address string) error {
	if !s.strict {
		return nil
	}
	if err := wallet.Validate(address); err != nil {
		return apperr.Validation(MsgInvalidAddress)
	}
	return nil
}
