package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cast"
	"golang.org/x/time/rate"
)

const bitablePath = "/open-apis/bitable/v1/apps/%s/tables/%s/%s"

// TableRef 远端多维表格的定位
type TableRef struct {
	AppID   string
	TableID string
}

// RecordUpdate 批量更新中的一条
type RecordUpdate struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

type FieldsOptions struct {
	PageSize int
	ViewID   string
	// Token 调用方指定的令牌，为空时使用 TokenSource
	Token string
}

// Client 多维表格接口的最小客户端
type Client struct {
	cfg     *Config
	doer    Doer
	tokens  TokenSource
	limiter *rate.Limiter
}

func NewClient(cfg *Config, doer Doer, tokens TokenSource) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	c := &Client{cfg: cfg, doer: doer, tokens: tokens}
	if cfg.QPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.QPS), burst)
	}
	return c
}

func (c *Client) token(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if c.tokens == nil {
		return "", ErrMissingToken
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

func (c *Client) endpoint(ref TableRef, suffix string, query url.Values) string {
	u := c.cfg.base() + fmt.Sprintf(bitablePath, url.PathEscape(ref.AppID), url.PathEscape(ref.TableID), suffix)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do 发送请求并返回解析后的响应体
func (c *Client) do(ctx context.Context, method, target, token string, payload any) (map[string]any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.callTimeout())
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lark 请求失败: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: raw}
	}

	out := make(map[string]any)
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("lark 响应解析失败: %w", err)
	}
	if code := cast.ToInt(out["code"]); code != 0 {
		return nil, &APIError{Status: resp.StatusCode, Code: code, Body: raw}
	}
	return out, nil
}

// ListFields 列出字段，原样返回远端响应
func (c *Client) ListFields(ctx context.Context, ref TableRef, opts FieldsOptions) (map[string]any, error) {
	token, err := c.token(ctx, opts.Token)
	if err != nil {
		return nil, err
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	if opts.ViewID != "" {
		q.Set("view_id", opts.ViewID)
	}
	return c.do(ctx, http.MethodGet, c.endpoint(ref, "fields", q), token, nil)
}

// BatchCreate 批量新增记录
func (c *Client) BatchCreate(ctx context.Context, ref TableRef, records []map[string]any, token string) (map[string]any, error) {
	token, err := c.token(ctx, token)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(records))
	for _, fields := range records {
		items = append(items, map[string]any{"fields": fields})
	}
	return c.do(ctx, http.MethodPost, c.endpoint(ref, "records/batch_create", nil), token, map[string]any{"records": items})
}

// BatchUpdate 批量更新记录
func (c *Client) BatchUpdate(ctx context.Context, ref TableRef, updates []RecordUpdate, token string) (map[string]any, error) {
	token, err := c.token(ctx, token)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, c.endpoint(ref, "records/batch_update", nil), token, map[string]any{"records": updates})
}

// SearchRecords 按过滤条件查询记录，返回归一化后的记录列表
func (c *Client) SearchRecords(ctx context.Context, ref TableRef, filter any, pageSize int, token string) ([]map[string]any, error) {
	token, err := c.token(ctx, token)
	if err != nil {
		return nil, err
	}
	var q url.Values
	if pageSize > 0 {
		q = url.Values{"page_size": []string{strconv.Itoa(pageSize)}}
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(ref, "records/search", q), token, filter)
	if err != nil {
		return nil, err
	}
	return ExtractRecords(resp), nil
}

// ExtractRecords 从搜索响应中取记录列表。
// 不同版本的接口把列表放在 records、data.records、items 或 data.items，
// 按此顺序取第一个非空列表。
func ExtractRecords(resp map[string]any) []map[string]any {
	data, _ := resp["data"].(map[string]any)
	candidates := []any{resp["records"], nil, resp["items"], nil}
	if data != nil {
		candidates[1] = data["records"]
		candidates[3] = data["items"]
	}
	for _, c := range candidates {
		if recs := toRecords(c); len(recs) > 0 {
			return recs
		}
	}
	return nil
}

func toRecords(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
