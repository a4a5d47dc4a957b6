package sync

import (
	"context"
	"errors"
	"time"

	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/resource"
)

var (
	ErrSyncRunning    = errors.New("sync_running")
	ErrInvalidRequest = errors.New("invalid_app_or_table")

	errNoIdentifier = errors.New("no identifier found")
)

const (
	DefaultDBPageSize = 100
	DefaultPageSize   = 20
	DefaultResource   = "productos"
	DefaultKeyField   = "productId"
)

// ProductSource 分页读取源数据
type ProductSource interface {
	List(ctx context.Context, resource string, spec resource.QuerySpec) (*resource.Page, error)
}

// RecordTable 远端表的查找与写入
type RecordTable interface {
	SearchRecords(ctx context.Context, ref lark.TableRef, filter any, pageSize int, token string) ([]map[string]any, error)
	BatchCreate(ctx context.Context, ref lark.TableRef, records []map[string]any, token string) (map[string]any, error)
	BatchUpdate(ctx context.Context, ref lark.TableRef, updates []lark.RecordUpdate, token string) (map[string]any, error)
}

// Observer 同步结束后的回调，不影响同步结果
type Observer interface {
	SyncFinished(ctx context.Context, run *models.SyncRun)
}

// Request 一次同步的参数
type Request struct {
	AppID      string `json:"appId" binding:"required"`
	TableID    string `json:"tableId" binding:"required"`
	ViewID     string `json:"viewId,omitempty"`
	DBPageSize int    `json:"dbPageSize,omitempty" binding:"omitempty,min=1,max=200"`
	PageSize   int    `json:"pageSize,omitempty" binding:"omitempty,min=1,max=500"`
	Resource   string `json:"resource,omitempty" binding:"omitempty,identifier"`
	KeyField   string `json:"keyField,omitempty" binding:"omitempty,identifier"`
	Token      string `json:"-"`
	Trigger    string `json:"-"`
}

func (r Request) withDefaults() Request {
	if r.DBPageSize <= 0 {
		r.DBPageSize = DefaultDBPageSize
	}
	if r.DBPageSize > resource.MaxPageSize {
		r.DBPageSize = resource.MaxPageSize
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.Resource == "" {
		r.Resource = DefaultResource
	}
	if r.KeyField == "" {
		r.KeyField = DefaultKeyField
	}
	if r.Trigger == "" {
		r.Trigger = models.TriggerManual
	}
	return r
}

func (r Request) ref() lark.TableRef {
	return lark.TableRef{AppID: r.AppID, TableID: r.TableID}
}

// Result 同步结果，计数只增不减
type Result struct {
	RunID      string                 `json:"runId"`
	Created    int                    `json:"created"`
	Updated    int                    `json:"updated"`
	Skipped    int                    `json:"skipped"`
	Pages      int                    `json:"pages"`
	Errors     []models.SyncItemError `json:"errors"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
}

func (r *Result) addError(key string, err error) {
	r.Errors = append(r.Errors, models.SyncItemError{Key: key, Error: err.Error()})
}

func (r *Result) record(req Request, fatal error) *models.SyncRun {
	run := &models.SyncRun{
		RunID:      r.RunID,
		Trigger:    req.Trigger,
		AppID:      req.AppID,
		TableID:    req.TableID,
		Resource:   req.Resource,
		Created:    r.Created,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Pages:      r.Pages,
		Errors:     append([]models.SyncItemError(nil), r.Errors...),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if fatal != nil {
		run.Fatal = fatal.Error()
	}
	return run
}
