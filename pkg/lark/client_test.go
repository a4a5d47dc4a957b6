package lark

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	tok string
	err error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.tok, s.err }

var ref = TableRef{AppID: "app1", TableID: "tbl1"}

func newClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg := NewDefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.QPS = 0
	return NewClient(cfg, srv.Client(), tokens), &hits
}

func TestListFields(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/open-apis/bitable/v1/apps/app1/tables/tbl1/fields", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("page_size"))
		assert.Equal(t, "vew1", r.URL.Query().Get("view_id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"code":0,"data":{"items":[{"field_name":"productId"}]}}`))
	}, staticTokens{tok: "tok"})

	resp, err := c.ListFields(context.Background(), ref, FieldsOptions{ViewID: "vew1"})
	require.NoError(t, err)
	data := resp["data"].(map[string]any)
	assert.Len(t, data["items"], 1)
}

func TestListFieldsOverrideToken(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mine", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		assert.Empty(t, r.URL.Query().Get("view_id"))
		_, _ = w.Write([]byte(`{"code":0}`))
	}, nil)

	_, err := c.ListFields(context.Background(), ref, FieldsOptions{PageSize: 100, Token: "mine"})
	assert.NoError(t, err)
}

func TestMissingTokenBeforeIO(t *testing.T) {
	for name, tokens := range map[string]TokenSource{
		"nil source":  nil,
		"empty token": staticTokens{},
	} {
		c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {}, tokens)
		_, err := c.ListFields(context.Background(), ref, FieldsOptions{})
		assert.ErrorIs(t, err, ErrMissingToken, name)
		_, err = c.BatchCreate(context.Background(), ref, nil, "")
		assert.ErrorIs(t, err, ErrMissingToken, name)
		_, err = c.BatchUpdate(context.Background(), ref, nil, "")
		assert.ErrorIs(t, err, ErrMissingToken, name)
		_, err = c.SearchRecords(context.Background(), ref, nil, 0, "")
		assert.ErrorIs(t, err, ErrMissingToken, name)
		assert.EqualValues(t, 0, hits.Load(), name)
	}

	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {}, staticTokens{err: ErrMissingCredentials})
	_, err := c.ListFields(context.Background(), ref, FieldsOptions{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.EqualValues(t, 0, hits.Load())
}

func TestRemoteErrorRelayed(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":91403,"msg":"Forbidden"}`))
	}, staticTokens{tok: "tok"})

	_, err := c.ListFields(context.Background(), ref, FieldsOptions{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.JSONEq(t, `{"code":91403,"msg":"Forbidden"}`, string(apiErr.Body))
}

func TestBusinessCodeIsError(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1254045,"msg":"FieldNameNotFound"}`))
	}, staticTokens{tok: "tok"})

	_, err := c.BatchCreate(context.Background(), ref, []map[string]any{{"a": 1}}, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, 1254045, apiErr.Code)
}

func TestBatchPayloads(t *testing.T) {
	var got []map[string]any
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		body["path"] = r.URL.Path
		got = append(got, body)
		_, _ = w.Write([]byte(`{"code":0,"data":{}}`))
	}, staticTokens{tok: "tok"})

	_, err := c.BatchCreate(context.Background(), ref, []map[string]any{{"productId": "P1"}}, "")
	require.NoError(t, err)
	_, err = c.BatchUpdate(context.Background(), ref, []RecordUpdate{{RecordID: "rec1", Fields: map[string]any{"productId": "P1"}}}, "")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "/open-apis/bitable/v1/apps/app1/tables/tbl1/records/batch_create", got[0]["path"])
	assert.Equal(t, []any{map[string]any{"fields": map[string]any{"productId": "P1"}}}, got[0]["records"])
	assert.Equal(t, "/open-apis/bitable/v1/apps/app1/tables/tbl1/records/batch_update", got[1]["path"])
	assert.Equal(t, []any{map[string]any{"record_id": "rec1", "fields": map[string]any{"productId": "P1"}}}, got[1]["records"])
}

func TestSearchRecords(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/open-apis/bitable/v1/apps/app1/tables/tbl1/records/search", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("page_size"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "filter")
		_, _ = w.Write([]byte(`{"code":0,"data":{"items":[{"record_id":"rec1","fields":{}}],"total":1}}`))
	}, staticTokens{tok: "tok"})

	recs, err := c.SearchRecords(context.Background(), ref, map[string]any{"filter": map[string]any{}}, 20, "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec1", recs[0]["record_id"])
}

func TestExtractRecords(t *testing.T) {
	rec := map[string]any{"record_id": "r"}
	cases := []struct {
		name string
		body string
		want int
	}{
		{"top level records", `{"records":[{"record_id":"r"}]}`, 1},
		{"nested records", `{"data":{"records":[{"record_id":"r"}]}}`, 1},
		{"top level items", `{"items":[{"record_id":"r"}]}`, 1},
		{"nested items", `{"data":{"items":[{"record_id":"r"}]}}`, 1},
		{"empty first shape falls through", `{"records":[],"data":{"items":[{"record_id":"r"}]}}`, 1},
		{"nothing", `{"data":{"total":0}}`, 0},
		{"wrong type", `{"records":"x"}`, 0},
	}
	for _, c := range cases {
		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(c.body), &resp), c.name)
		got := ExtractRecords(resp)
		assert.Len(t, got, c.want, c.name)
		if c.want > 0 {
			assert.Equal(t, rec, got[0], c.name)
		}
	}
}
