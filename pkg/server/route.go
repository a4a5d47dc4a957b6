package server

import (
	"net/http"
	gosync "sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var validatorsOnce gosync.Once

// InitRouter 初始化路由配置
func InitRouter(engine *gin.Engine, handler *Handler, apiKeys []string, metricsHandler http.Handler) *gin.RouterGroup {
	validatorsOnce.Do(registerValidators)

	engine.GET("/health", handler.Health)
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := engine.Group("/v1")
	v1.Use(RequireAPIKey(apiKeys))
	{
		larkGroup := v1.Group("/lark")
		{
			larkGroup.GET("/fields", handler.LarkFields)
			larkGroup.POST("/sync", handler.LarkSync)
			larkGroup.GET("/sync/runs", handler.SyncRuns)
		}

		v1.GET("/:res/items", handler.ListItems)
		v1.GET("/:res/items/:id", handler.GetItem)
		v1.GET("/:res/orders", handler.ListOrders)
		v1.GET("/:res/orders/:billcode", handler.GetOrder)
	}
	zap.S().Infof("路由注册成功: %d 条", len(engine.Routes()))
	return v1
}
