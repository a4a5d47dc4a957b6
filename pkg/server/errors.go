package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/resource"
	"mssql-openapi/pkg/sync"
	"mssql-openapi/pkg/util"
)

// respondError 按错误类别映射状态码，数据库细节只写日志
func respondError(c *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		apiErr *lark.APIError
		qe     *resource.QueryError
	)
	switch {
	case errors.As(err, &ve):
		util.ErrWithCode(c, http.StatusBadRequest, gin.H{"error": "invalid_params", "detail": fieldErrors(ve)})
	case resource.IsNotFound(err):
		util.ErrWithCode(c, http.StatusNotFound, "resource_not_found")
	case resource.IsClientError(err), errors.Is(err, sync.ErrInvalidRequest):
		util.ErrWithCode(c, http.StatusBadRequest, err)
	case errors.Is(err, sync.ErrSyncRunning):
		util.ErrWithCode(c, http.StatusConflict, err)
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		util.ErrWithCode(c, status, gin.H{"error": "lark_api_error", "detail": remoteBody(apiErr.Body)})
	case lark.IsCredentialError(err):
		zap.S().Errorf("lark 凭证错误: %v", err)
		util.ErrWithCode(c, http.StatusInternalServerError, err)
	case errors.As(err, &qe):
		util.ErrWithCode(c, http.StatusInternalServerError, "query_failed")
	default:
		zap.S().Errorf("请求 %s 失败: %v", c.FullPath(), err)
		util.ErrWithCode(c, http.StatusInternalServerError, "internal_error")
	}
}

// bindError 请求体绑定失败，校验错误给出字段明细
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		respondError(c, err)
		return
	}
	util.ErrWithCode(c, http.StatusBadRequest, gin.H{"error": "invalid_params", "detail": err.Error()})
}

func fieldErrors(ve validator.ValidationErrors) []gin.H {
	out := make([]gin.H, 0, len(ve))
	for _, fe := range ve {
		out = append(out, gin.H{"field": fe.Field(), "tag": fe.Tag(), "param": fe.Param()})
	}
	return out
}

// remoteBody 远端响应体是 JSON 时原样透传
func remoteBody(b []byte) any {
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	return string(b)
}
