package lark

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials   = errors.New("missing_lark_app_credentials")
	ErrAuthenticationFailed = errors.New("failed_lark_auth")
	ErrMissingToken         = errors.New("missing_lark_token")
)

// IsCredentialError 配置类错误，调用方按 5xx 处理
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrMissingToken)
}

// APIError 远端返回的非 2xx 响应，或 2xx 但业务码非 0
type APIError struct {
	Status int
	// Code 远端业务码，HTTP 层失败时为 0
	Code int
	Body []byte
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("lark api error: status=%d code=%d body=%s", e.Status, e.Code, e.Body)
	}
	return fmt.Sprintf("lark api error: status=%d body=%s", e.Status, e.Body)
}
