package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/resource"
)

// Engine 将源视图的行逐条对账到远端表：按业务键查找，命中则更新，否则新增
type Engine struct {
	source    ProductSource
	table     RecordTable
	observers []Observer
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

func NewEngine(source ProductSource, table RecordTable, observers ...Observer) *Engine {
	return &Engine{
		source:    source,
		table:     table,
		observers: observers,
		now:       time.Now,
	}
}

// Running 是否有同步正在执行
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Run 执行一次同步。单条失败只记录不中断；读取源数据失败则中止并返回已累计的结果
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if req.AppID == "" || req.TableID == "" {
		return nil, ErrInvalidRequest
	}
	req = req.withDefaults()
	if !e.acquire() {
		return nil, ErrSyncRunning
	}
	defer e.release()

	res := &Result{
		RunID:     uuid.NewString(),
		Errors:    make([]models.SyncItemError, 0),
		StartedAt: e.now(),
	}
	zap.S().Infof("开始同步 %s -> %s/%s (run=%s, dbPageSize=%d)",
		req.Resource, req.AppID, req.TableID, res.RunID, req.DBPageSize)

	fatal := e.loop(ctx, req, res)
	res.FinishedAt = e.now()
	e.notify(ctx, res.record(req, fatal))

	if fatal != nil {
		zap.S().Errorf("同步中止 run=%s: %v (新增: %d, 更新: %d, 失败: %d)",
			res.RunID, fatal, res.Created, res.Updated, len(res.Errors))
		return res, fatal
	}
	zap.S().Infof("同步完成 run=%s - 新增: %d, 更新: %d, 跳过: %d, 失败: %d, 耗时: %v",
		res.RunID, res.Created, res.Updated, res.Skipped, len(res.Errors), res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

func (e *Engine) loop(ctx context.Context, req Request, res *Result) error {
	for page := 1; ; page++ {
		pg, err := e.source.List(ctx, req.Resource, resource.QuerySpec{Page: page, PageSize: req.DBPageSize})
		if err != nil {
			return fmt.Errorf("读取第 %d 页源数据失败: %w", page, err)
		}
		res.Pages++
		if len(pg.Items) == 0 {
			return nil
		}
		for _, row := range pg.Items {
			e.reconcile(ctx, req, row, res)
		}
		if len(pg.Items) < req.DBPageSize {
			return nil
		}
	}
}

// reconcile 处理单行，所有错误都记入结果
func (e *Engine) reconcile(ctx context.Context, req Request, row map[string]any, res *Result) {
	key := extractKey(row, req.KeyField)
	if key == "" {
		res.Skipped++
		return
	}
	if err := e.upsert(ctx, req, key, row, res); err != nil {
		zap.S().Warnf("同步记录 %s 失败: %v", key, err)
		res.addError(key, err)
	}
}

func (e *Engine) upsert(ctx context.Context, req Request, key string, row map[string]any, res *Result) error {
	ref := req.ref()
	found, err := e.table.SearchRecords(ctx, ref, keySearch(req.KeyField, key, req.ViewID), req.PageSize, req.Token)
	if err != nil {
		return err
	}
	fields := toFields(row)

	if len(found) == 0 {
		if _, err := e.table.BatchCreate(ctx, ref, []map[string]any{fields}, req.Token); err != nil {
			return err
		}
		res.Created++
		return nil
	}

	id := recordID(found[0])
	if id == "" {
		return errNoIdentifier
	}
	if _, err := e.table.BatchUpdate(ctx, ref, []lark.RecordUpdate{{RecordID: id, Fields: fields}}, req.Token); err != nil {
		return err
	}
	res.Updated++
	return nil
}

func (e *Engine) notify(ctx context.Context, run *models.SyncRun) {
	for _, o := range e.observers {
		o.SyncFinished(ctx, run)
	}
}
