package util

import (
	"strings"
	"unsafe"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

func IsValidPort[T int | int32 | uint | uint32 | uint64 | int64 | string](port T) error {
	p, err := cast.ToIntE(port)
	if err != nil {
		return errors.Wrap(err, "端口转换错误")
	}

	if p >= 0 && p < 65535 {
		return nil
	}
	return errors.Errorf("%d不是一个合格的[0-65535]端口", p)
}

func StringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// GetParam 从 Query 或 PostForm 获取参数（优先 Query），结果去掉首尾空白
func GetParam(c *gin.Context, key string) string {
	if val := c.Query(key); val != "" {
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(c.PostForm(key))
}

// GetIntParam 读取整数参数，缺失或非法时返回 def
func GetIntParam(c *gin.Context, def int, keys ...string) int {
	for _, key := range keys {
		raw := GetParam(c, key)
		if raw == "" {
			continue
		}
		v, err := cast.ToIntE(raw)
		if err != nil {
			return def
		}
		return v
	}
	return def
}
