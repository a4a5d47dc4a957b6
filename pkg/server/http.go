package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mssql-openapi/pkg/metrics"
)

type Server struct {
	srv  *http.Server
	port int
}

// NewEngine 构建 gin 引擎与中间件，m 可为 nil
func NewEngine(cfg *Config, handler *Handler, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()

	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(cors.New(corsConfig(cfg.Cors)))

	var metricsHandler http.Handler
	if m != nil {
		engine.Use(m.Middleware())
		metricsHandler = m.Handler()
	}
	InitRouter(engine, handler, cfg.APIKeys, metricsHandler)
	return engine
}

func corsConfig(c *CorsConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", apiKeyHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if c == nil || len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = c.AllowOrigins
	return cc
}

func NewServer(cfg *Config, handler *Handler, m *metrics.Metrics) *Server {
	server := &Server{
		port: cfg.Port,
	}
	server.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", server.port),
		Handler:           NewEngine(cfg, handler, m),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func (srv *Server) Run() error {
	zap.S().Infof("http server 监听 :%d", srv.port)
	err := srv.srv.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			zap.S().Debugf("http server[:%d] 已经关闭...", srv.port)
			return nil
		}
		return err
	}
	return nil
}

func (srv *Server) GracefulShutdown(ctx context.Context) error {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.srv.Shutdown(c); err != nil {
		zap.S().Errorf("http server 关闭错误:%s", err.Error())
		return err
	}
	return nil
}
