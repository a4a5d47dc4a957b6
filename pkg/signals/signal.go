package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var onlyOneSignalHandler = make(chan struct{})

// SetupSignalHandler 收到 SIGINT/SIGTERM 时取消返回的 ctx，第二次信号直接退出。只能调用一次
func SetupSignalHandler() context.Context {
	close(onlyOneSignalHandler)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		zap.S().Infof("收到信号 %s，开始退出...", sig)
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
