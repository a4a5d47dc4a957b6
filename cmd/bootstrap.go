package cmd

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mssql-openapi/pkg/db"
	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/metrics"
	"mssql-openapi/pkg/nsc"
	"mssql-openapi/pkg/resource"
	"mssql-openapi/pkg/server"
	"mssql-openapi/pkg/store"
	"mssql-openapi/pkg/sync"
)

// app 进程内共享的组件
type app struct {
	cfg       *server.Config
	service   *resource.Service
	session   *lark.SessionManager
	client    *lark.Client
	engine    *sync.Engine
	store     *store.BadgerStore
	publisher *nsc.Publisher
	metrics   *metrics.Metrics
}

// newApp 依次初始化数据库、远端客户端与可选的历史存储、NATS 发布
func newApp(cfg *server.Config, withMetrics bool) (*app, error) {
	a := &app{cfg: cfg}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, errors.Wrap(err, "资源注册表错误")
	}
	if err := db.InitDB(cfg.DB); err != nil {
		return nil, errors.Wrap(err, "无法连接数据库")
	}
	a.service = resource.NewService(db.GetDB(), registry, resource.DialectFor(cfg.DB.Type()))
	zap.S().Infof("已注册资源: %v", registry.Names())

	doer := &http.Client{}
	a.session = lark.NewSessionManager(cfg.Lark, doer)
	a.client = lark.NewClient(cfg.Lark, doer, a.session)

	observers := make([]sync.Observer, 0, 3)
	if cfg.Store != nil && cfg.Store.Enabled {
		if a.store, err = store.Open(cfg.Store); err != nil {
			a.close()
			return nil, errors.Wrap(err, "打开同步历史存储失败")
		}
		observers = append(observers, a.store)
	}
	if cfg.Nats != nil && cfg.Nats.Enabled {
		if a.publisher, err = nsc.NewPublisher(cfg.ClientName, cfg.Nats); err != nil {
			a.close()
			return nil, errors.Wrap(err, "初始化 NATS 失败")
		}
		observers = append(observers, a.publisher)
	}
	if withMetrics {
		a.metrics = metrics.New()
		observers = append(observers, a.metrics)
	}
	a.engine = sync.NewEngine(a.service, a.client, observers...)
	return a, nil
}

func (a *app) handler() *server.Handler {
	var history server.RunHistory
	if a.store != nil {
		history = a.store
	}
	return server.NewHandler(a.service, a.client, a.engine, history)
}

func (a *app) tokenSummary() any {
	return a.session.Summary()
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	db.Close()
}
