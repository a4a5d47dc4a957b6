package store

import (
	"context"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"mssql-openapi/pkg/models"
)

// BadgerStore 同步执行记录的本地存储
type BadgerStore struct {
	store     *badgerhold.Store
	retention time.Duration
}

func Open(cfg *Config) (*BadgerStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "创建存储目录 %s 失败", cfg.Dir)
	}
	options := badgerhold.DefaultOptions
	options.Dir = cfg.Dir
	options.ValueDir = cfg.Dir
	options.Logger = nil
	s, err := badgerhold.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "打开 Badger 存储失败")
	}
	return &BadgerStore{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}, nil
}

func (b *BadgerStore) SaveRun(run *models.SyncRun) error {
	return b.store.Upsert(run.RunID, run)
}

func (b *BadgerStore) GetRun(runID string) (*models.SyncRun, error) {
	run := new(models.SyncRun)
	if err := b.store.Get(runID, run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

// RecentRuns 按开始时间倒序，appID 为空时不过滤
func (b *BadgerStore) RecentRuns(limit int, appID string) ([]models.SyncRun, error) {
	q := &badgerhold.Query{}
	if appID != "" {
		q = badgerhold.Where("AppID").Eq(appID).Index("AppID")
	}
	q = q.SortBy("StartedAt").Reverse()
	if limit > 0 {
		q = q.Limit(limit)
	}
	runs := make([]models.SyncRun, 0)
	if err := b.store.Find(&runs, q); err != nil {
		return nil, err
	}
	return runs, nil
}

// Prune 删除早于 before 的记录
func (b *BadgerStore) Prune(before time.Time) error {
	return b.store.DeleteMatching(&models.SyncRun{}, badgerhold.Where("StartedAt").Lt(before))
}

// Count 记录总数
func (b *BadgerStore) Count() (uint64, error) {
	var n uint64
	err := b.store.Badger().View(func(txn *badger.Txn) error {
		c, err := b.store.TxCount(txn, &models.SyncRun{}, nil)
		n = c
		return err
	})
	return n, err
}

// SyncFinished 同步结束回调，写入失败只记录日志
func (b *BadgerStore) SyncFinished(_ context.Context, run *models.SyncRun) {
	if err := b.SaveRun(run); err != nil {
		zap.S().Errorf("保存同步记录 %s 失败: %v", run.RunID, err)
		return
	}
	if b.retention > 0 {
		if err := b.Prune(time.Now().Add(-b.retention)); err != nil {
			zap.S().Warnf("清理过期同步记录失败: %v", err)
		}
	}
}

func (b *BadgerStore) Close() {
	zap.S().Info("正在关闭 Badger 存储...")
	if err := b.store.Close(); err != nil {
		zap.S().Errorf("关闭 Badger 存储时发生错误: %v", err)
		return
	}
	zap.S().Info("Badger 存储已成功关闭")
}
