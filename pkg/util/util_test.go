package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestGetIntParam(t *testing.T) {
	c, _ := testContext("/?size=&pageSize=25&bad=x&page=%203%20")
	assert.Equal(t, 25, GetIntParam(c, 50, "size", "pageSize"))
	assert.Equal(t, 50, GetIntParam(c, 50, "missing"))
	assert.Equal(t, 7, GetIntParam(c, 7, "bad"))
	assert.Equal(t, 3, GetIntParam(c, 1, "page"))
	assert.Equal(t, "", GetParam(c, "size"))
}

func TestIsValidPort(t *testing.T) {
	assert.NoError(t, IsValidPort(3000))
	assert.NoError(t, IsValidPort("8080"))
	assert.Error(t, IsValidPort(70000))
	assert.Error(t, IsValidPort("abc"))
}

func TestErrWithCode(t *testing.T) {
	cases := []struct {
		in      any
		status  int
		message string
	}{
		{errors.New("boom"), http.StatusBadRequest, "boom"},
		{"not_found", http.StatusNotFound, "not_found"},
		{gin.H{"error": "invalid_params", "detail": []string{"a"}}, http.StatusBadRequest, "invalid_params"},
		{42, http.StatusTeapot, "Internal server error"},
	}
	for _, tc := range cases {
		c, w := testContext("/")
		ErrWithCode(c, tc.status, tc.in)
		assert.True(t, c.IsAborted())
		require.Equal(t, tc.status, w.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tc.status, resp.Code)
		assert.Equal(t, tc.message, resp.Message)
	}
}

func TestOk(t *testing.T) {
	c, w := testContext("/")
	Ok(c, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, mustData(t, w.Body.Bytes()))
}

func mustData(t *testing.T, body []byte) string {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	return string(raw["data"])
}
