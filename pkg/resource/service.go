package resource

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mssql-openapi/pkg/db"
)

// 订单视图上的固定列
const (
	OrderCustomerColumn = "customerCode"
	OrderBillColumn     = "BillCode"
	OrderCreatedColumn  = "CreateDate"
)

// Service 执行构建好的查询并整理结果
type Service struct {
	db       *gorm.DB
	registry *Registry
	builder  *Builder
}

func NewService(db *gorm.DB, registry *Registry, dialect Dialect) *Service {
	return &Service{
		db:       db,
		registry: registry,
		builder:  NewBuilder(dialect),
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) rows(ctx context.Context, op string, st Statement) ([]map[string]any, error) {
	rows := make([]map[string]any, 0)
	if err := s.db.WithContext(ctx).Raw(st.SQL, st.Args...).Scan(&rows).Error; err != nil {
		qe := &QueryError{Op: op, SQL: st.SQL, Args: st.Args, Err: err}
		zap.S().Errorf("查询失败: %s", qe.Detail())
		return nil, qe
	}
	return rows, nil
}

// List 分页查询资源，返回当前页数据与过滤后的总数
func (s *Service) List(ctx context.Context, resource string, spec QuerySpec) (*Page, error) {
	cfg, err := s.registry.Resolve(resource)
	if err != nil {
		return nil, err
	}
	spec = spec.Normalize()
	itemsSt, countSt, err := s.builder.List(cfg, spec)
	if err != nil {
		return nil, err
	}

	items, err := s.rows(ctx, "items", itemsSt)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Raw(countSt.SQL, countSt.Args...).Scan(&total).Error; err != nil {
		qe := &QueryError{Op: "count", SQL: countSt.SQL, Args: countSt.Args, Err: err}
		zap.S().Errorf("查询失败: %s", qe.Detail())
		return nil, qe
	}

	return &Page{
		Items:    items,
		Page:     spec.Page,
		PageSize: spec.PageSize,
		Total:    total,
	}, nil
}

// GetByID 查询单行，未命中时返回 nil, nil
func (s *Service) GetByID(ctx context.Context, resource, id, idColumn string) (map[string]any, error) {
	cfg, err := s.registry.Resolve(resource)
	if err != nil {
		return nil, err
	}
	st, err := s.builder.ByID(cfg, id, idColumn)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(ctx, "getById", st)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetOrder 按客户编码与单据号查找订单，依次尝试候选视图
func (s *Service) GetOrder(ctx context.Context, resource, customerCode, billCode string) (map[string]any, error) {
	cfg, err := s.registry.Resolve(resource)
	if err != nil {
		return nil, err
	}
	for _, view := range cfg.Views() {
		st, err := s.builder.Lookup(view,
			[]string{OrderCustomerColumn, OrderBillColumn},
			[]any{customerCode, billCode}, "")
		if err != nil {
			return nil, err
		}
		rows, err := s.rows(ctx, "getOrder", st)
		if err != nil {
			zap.S().Warnf("候选视图 %s 不可用，尝试下一个", view)
			continue
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	return nil, ErrResourceNotFound
}

// ListOrders 列出客户的全部订单，按创建时间倒序
func (s *Service) ListOrders(ctx context.Context, resource, customerCode string) ([]map[string]any, error) {
	cfg, err := s.registry.Resolve(resource)
	if err != nil {
		return nil, err
	}
	for _, view := range cfg.Views() {
		st, err := s.builder.Lookup(view,
			[]string{OrderCustomerColumn},
			[]any{customerCode}, OrderCreatedColumn)
		if err != nil {
			return nil, err
		}
		rows, err := s.rows(ctx, "listOrders", st)
		if err != nil {
			zap.S().Warnf("候选视图 %s 不可用，尝试下一个", view)
			continue
		}
		return rows, nil
	}
	return nil, ErrResourceNotFound
}

// Ping 健康检查
func (s *Service) Ping(ctx context.Context) error {
	return errors.Wrap(db.Ping(ctx, s.db), "db ping failed")
}
