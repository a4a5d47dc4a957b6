package lark

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://open.larksuite.com"

type Config struct {
	BaseURL   string `json:"baseUrl" yaml:"baseUrl"`
	AppID     string `json:"appId" yaml:"appId"`
	AppSecret string `json:"appSecret" yaml:"appSecret"`
	// Token 静态令牌，设置后不再走应用鉴权
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// 以下时间单位均为秒
	AuthTimeout  int     `json:"authTimeout" yaml:"authTimeout"`
	Timeout      int     `json:"timeout" yaml:"timeout"`
	SafetyMargin int     `json:"safetyMargin" yaml:"safetyMargin"`
	QPS          float64 `json:"qps" yaml:"qps"`
	Burst        int     `json:"burst" yaml:"burst"`
}

func NewDefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		AuthTimeout:  10,
		Timeout:      15,
		SafetyMargin: 5,
		QPS:          5,
		Burst:        5,
	}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.Errorf("lark baseUrl 无效: %q", c.BaseURL))
	}
	if c.QPS < 0 {
		errs = append(errs, errors.New("lark qps 不能为负数"))
	}
	return errs
}

func (c *Config) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func (c *Config) authTimeout() time.Duration { return seconds(c.AuthTimeout, 10) }

func (c *Config) callTimeout() time.Duration { return seconds(c.Timeout, 15) }

func (c *Config) margin() int64 {
	if c.SafetyMargin < 0 {
		return 0
	}
	if c.SafetyMargin == 0 {
		return 5
	}
	return int64(c.SafetyMargin)
}
