package server

import (
	"context"

	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/resource"
	"mssql-openapi/pkg/sync"
)

// ResourceService 资源读取
type ResourceService interface {
	List(ctx context.Context, res string, spec resource.QuerySpec) (*resource.Page, error)
	GetByID(ctx context.Context, res, id, idColumn string) (map[string]any, error)
	GetOrder(ctx context.Context, res, customerCode, billCode string) (map[string]any, error)
	ListOrders(ctx context.Context, res, customerCode string) ([]map[string]any, error)
	Ping(ctx context.Context) error
}

// FieldLister 远端表字段查询
type FieldLister interface {
	ListFields(ctx context.Context, ref lark.TableRef, opts lark.FieldsOptions) (map[string]any, error)
}

// SyncRunner 手动触发同步
type SyncRunner interface {
	Run(ctx context.Context, req sync.Request) (*sync.Result, error)
}

// RunHistory 同步历史
type RunHistory interface {
	RecentRuns(limit int, appID string) ([]models.SyncRun, error)
}

// Handler v1版本API处理器
type Handler struct {
	resources ResourceService
	fields    FieldLister
	syncer    SyncRunner
	history   RunHistory
}

// NewHandler history 可为 nil
func NewHandler(resources ResourceService, fields FieldLister, syncer SyncRunner, history RunHistory) *Handler {
	return &Handler{
		resources: resources,
		fields:    fields,
		syncer:    syncer,
		history:   history,
	}
}

// HealthResponse /health 响应
type HealthResponse struct {
	OK bool     `json:"ok"`
	DB DBHealth `json:"db"`
}

type DBHealth struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}
