// Package apiclient BioVault REST 接口客户端
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"biovault/internal/shared/model"
)

// DefaultTimeout 单次请求超时
const DefaultTimeout = 10 * time.Second

// msgAlreadyExists 服务端重复注册时返回的消息
const msgAlreadyExists = "User already exists"

// Error 服务端返回的非 2xx 响应
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound 是否为 404
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// IsAlreadyExists 是否为重复注册（服务端以 400 返回）
func IsAlreadyExists(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusBadRequest && e.Message == msgAlreadyExists
}

// Session 注册或登录成功后的用户与令牌
type Session struct {
	User  model.User
	Token string
}

// Client REST 客户端，可并发使用
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端；httpClient 为 nil 时使用带超时的默认客户端
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Lookup 按钱包地址查询用户，未注册返回 (nil, nil)
func (c *Client) Lookup(ctx context.Context, address string) (*model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(address), "", nil, &u)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register 注册钱包地址
func (c *Client) Register(ctx context.Context, address, role string) (*Session, error) {
	body := map[string]string{"walletAddress": address, "role": role}
	return c.session(ctx, "/api/users", body)
}

// Login 为已注册地址获取令牌
func (c *Client) Login(ctx context.Context, address string) (*Session, error) {
	body := map[string]string{"walletAddress": address}
	return c.session(ctx, "/api/users/login", body)
}

// ProtectedData 获取研究员数据集列表
func (c *Client) ProtectedData(ctx context.Context, token string) ([]model.Dataset, error) {
	var items []model.Dataset
	if err := c.do(ctx, http.MethodGet, "/api/users/protected-data", token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// tokenResponse 注册与登录响应的公共形态
type tokenResponse struct {
	model.User
	Token string `json:"token"`
}

func (c *Client) session(ctx context.Context, path string, body interface{}) (*Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%s: response carries no token", path)
	}
	return &Session{User: resp.User, Token: resp.Token}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&msg)
		return &Error{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
