package resource

import (
	"errors"
	"fmt"
	"strings"
)

// 客户端输入错误，错误文本即对外的错误码
var (
	ErrUnknownResource   = errors.New("resource_not_found")
	ErrResourceNotFound  = errors.New("resource_not_found")
	ErrInvalidSort       = errors.New("invalid_sort")
	ErrInvalidIdentifier = errors.New("invalid_identifier")
	ErrInvalidIdColumn   = errors.New("invalid_idCol")
)

// IsClientError 请求参数类错误（4xx）
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSort) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrInvalidIdColumn)
}

// IsNotFound 资源不存在类错误（404）
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownResource) || errors.Is(err, ErrResourceNotFound)
}

// QueryError 数据库执行失败，保留 SQL 与参数用于服务端日志，不回传给调用方
type QueryError struct {
	Op   string
	SQL  string
	Args []any
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Detail 诊断信息，仅用于日志
func (e *QueryError) Detail() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" sql=")
	sb.WriteString(e.SQL)
	sb.WriteString(fmt.Sprintf(" args=%v err=%v", e.Args, e.Err))
	return sb.String()
}
