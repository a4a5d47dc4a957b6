package util

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitZapLog 控制台格式日志，level 为空时使用 debug
func InitZapLog(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime + ".000")
	config.Encoding = "console"
	lvl := zap.NewAtomicLevelAt(zap.DebugLevel)
	if level != "" {
		if parsed, err := zap.ParseAtomicLevel(level); err == nil {
			lvl = parsed
		}
	}
	config.Level = lvl
	logger, _ := config.Build()
	return logger
}
