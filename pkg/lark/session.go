package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const authPath = "/open-apis/auth/v3/app_access_token/internal"

// Doer http.Client 的最小子集
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource 提供访问远端接口的令牌
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Session 内存中的访问令牌，刷新时整体替换
type Session struct {
	AppAccessToken    string
	TenantAccessToken string
	// ExpireAt 绝对过期时间（unix 秒）
	ExpireAt int64
}

// SessionSummary 日志用的会话概况，不含令牌内容
type SessionSummary struct {
	HasAppToken    bool      `json:"hasAppToken"`
	HasTenantToken bool      `json:"hasTenantToken"`
	ExpireAt       time.Time `json:"expireAt"`
	Static         bool      `json:"static"`
}

type authResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	AppAccessToken    string `json:"app_access_token"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

// SessionManager 缓存应用令牌并在过期前刷新，并发刷新合并为一次
type SessionManager struct {
	cfg  *Config
	doer Doer
	now  func() time.Time

	mu      sync.RWMutex
	session *Session
	group   singleflight.Group
}

func NewSessionManager(cfg *Config, doer Doer) *SessionManager {
	if doer == nil {
		doer = &http.Client{}
	}
	return &SessionManager{cfg: cfg, doer: doer, now: time.Now}
}

// WithClock 替换时钟
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// Token 优先静态令牌，其次未过期的缓存（租户令牌优先），否则重新鉴权并返回应用令牌
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	if m.cfg.Token != "" {
		return m.cfg.Token, nil
	}
	if m.cfg.AppID == "" || m.cfg.AppSecret == "" {
		return "", ErrMissingCredentials
	}
	if tok, ok := m.cached(); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do("auth", func() (interface{}, error) {
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		s, err := m.authenticate(ctx)
		if err != nil {
			return "", err
		}
		return s.AppAccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *SessionManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s == nil || s.ExpireAt == 0 {
		return "", false
	}
	if m.now().Unix() >= s.ExpireAt-m.cfg.margin() {
		return "", false
	}
	if s.TenantAccessToken != "" {
		return s.TenantAccessToken, true
	}
	return s.AppAccessToken, s.AppAccessToken != ""
}

func (m *SessionManager) authenticate(ctx context.Context) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.authTimeout())
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"app_id":     m.cfg.AppID,
		"app_secret": m.cfg.AppSecret,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.base()+authPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := m.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lark 鉴权请求失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: body}
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if ar.AppAccessToken == "" {
		return nil, fmt.Errorf("%w: code=%d msg=%s", ErrAuthenticationFailed, ar.Code, ar.Msg)
	}

	s := &Session{
		AppAccessToken:    ar.AppAccessToken,
		TenantAccessToken: ar.TenantAccessToken,
		ExpireAt:          m.now().Unix() + ar.Expire,
	}
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	zap.S().Debugf("lark 令牌已刷新，有效期 %d 秒", ar.Expire)
	return s, nil
}

// Summary 当前会话概况
func (m *SessionManager) Summary() SessionSummary {
	if m.cfg.Token != "" {
		return SessionSummary{Static: true}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return SessionSummary{}
	}
	return SessionSummary{
		HasAppToken:    m.session.AppAccessToken != "",
		HasTenantToken: m.session.TenantAccessToken != "",
		ExpireAt:       time.Unix(m.session.ExpireAt, 0),
	}
}
