package server

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mssql-openapi/pkg/resource"
)

// registerValidators 为 gin 的绑定校验器注册 identifier 规则
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	if err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return resource.ValidIdentifier(fl.Field().String())
	}); err != nil {
		zap.S().Errorf("注册校验规则失败: %v", err)
	}
}
