package db

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var gormDB *gorm.DB
var databaseOnce sync.Once

// InitDB 初始化只读业务库（sqlserver/mysql/postgres）
func InitDB(cfg *Config) error {
	var err error
	databaseOnce.Do(func() {
		gormDB, err = Open(cfg)
		if err != nil {
			return
		}
		zap.S().Debugf("*** 数据库初始化完成 (%s) ***", cfg.Type())
	})
	return err
}

// Open 按配置打开连接并设置连接池
func Open(cfg *Config) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.Type() {
	case TypePostgres:
		dial = postgres.Open(cfg.DSN())
	case TypeMySQL:
		dial = mysql.New(mysql.Config{DSN: cfg.DSN()})
	default:
		dial = sqlserver.Open(cfg.DSN())
	}
	conn, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		conn = conn.Debug()
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
	return conn, nil
}

func GetDB() *gorm.DB {
	return gormDB
}

// Close 关闭底层连接池
func Close() {
	if gormDB == nil {
		return
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping 健康检查
func Ping(ctx context.Context, conn *gorm.DB) error {
	var ok int
	return conn.WithContext(ctx).Raw("SELECT 1 AS ok").Scan(&ok).Error
}
