package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mssql-openapi/pkg/models"
)

// Scheduler 按 cron 表达式触发同步
type Scheduler struct {
	engine  *Engine
	cfg     *Config
	summary func() any
	cron    *cron.Cron
}

// NewScheduler summary 用于在每次触发时记录令牌状态，可为 nil
func NewScheduler(engine *Engine, cfg *Config, summary func() any) *Scheduler {
	return &Scheduler{engine: engine, cfg: cfg, summary: summary}
}

func newCron(expr string) (*cron.Cron, error) {
	switch len(strings.Fields(expr)) {
	case 6:
		return cron.New(cron.WithSeconds()), nil
	case 5:
		return cron.New(), nil
	default:
		return nil, fmt.Errorf("无效的 cron 表达式格式，应为5位或6位: %s", expr)
	}
}

// Start 注册定时任务，ctx 结束时停止调度器
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Schedule == nil || !s.cfg.Schedule.Enabled {
		zap.S().Info("定时同步未启用")
		return nil
	}
	expr := strings.TrimSpace(s.cfg.Schedule.Cron)
	if expr == "" {
		return fmt.Errorf("cron 表达式不能为空")
	}
	c, err := newCron(expr)
	if err != nil {
		return err
	}
	entryID, err := c.AddFunc(expr, func() { s.Tick(ctx) })
	if err != nil {
		return fmt.Errorf("解析 CRON 表达式失败: %w", err)
	}
	zap.S().Infof("CRON 任务已注册 (EntryID: %d, 表达式: %s)", entryID, expr)

	s.cron = c
	c.Start()
	zap.S().Info("CRON 调度器已启动")

	if s.cfg.Schedule.RunOnStart {
		go s.Tick(ctx)
	}

	go func() {
		<-ctx.Done()
		zap.S().Info("接收到停止信号，正在停止 CRON 调度器...")
		stopCtx := c.Stop()
		<-stopCtx.Done()
		zap.S().Info("CRON 调度器已停止")
	}()
	return nil
}

// Tick 执行一次定时同步，错误只记录
func (s *Scheduler) Tick(ctx context.Context) {
	zap.S().Info("CRON 触发同步任务...")
	if s.cfg.Target == nil {
		zap.S().Error("未配置同步目标")
		return
	}
	if s.summary != nil {
		zap.S().Infof("令牌状态: %+v", s.summary())
	}
	res, err := s.engine.Run(ctx, s.cfg.Target.Request(models.TriggerCron))
	if err != nil {
		zap.S().Errorf("CRON 调度执行失败: %v", err)
		return
	}
	zap.S().Infof("CRON 调度执行成功: 新增 %d, 更新 %d, 失败 %d", res.Created, res.Updated, len(res.Errors))
}
