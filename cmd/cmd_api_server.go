package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mssql-openapi/pkg/server"
	"mssql-openapi/pkg/signals"
	"mssql-openapi/pkg/sync"
	"mssql-openapi/pkg/util"
)

func NewServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "启动api服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := joinErrors(cfg.Validate()); err != nil {
				return err
			}
			ctx := signals.SetupSignalHandler()
			return startServer(ctx, cfg)
		},
	}
}

func startServer(ctx context.Context, cfg *server.Config) error {
	zap.S().Infof("***  %s ***", util.GetVersion())
	zap.S().Infof("*** 客户ID:%s ***", cfg.ClientName)

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	var start func(context.Context) error
	if cfg.Sync != nil {
		start = sync.NewScheduler(a.engine, cfg.Sync, a.tokenSummary).Start
	}
	return serve(ctx, start, server.NewServer(cfg, a.handler(), a.metrics))
}

// webRunner http 服务的启动与关闭
type webRunner interface {
	Run() error
	GracefulShutdown(ctx context.Context) error
}

// serve 先启动调度器，成功后才开始监听，ctx 结束时优雅关闭
func serve(ctx context.Context, start func(context.Context) error, web webRunner) error {
	g, c := errgroup.WithContext(ctx)
	if start != nil {
		if err := start(c); err != nil {
			return err
		}
	}
	g.Go(web.Run)
	g.Go(func() error {
		<-c.Done()
		_ = web.GracefulShutdown(c)
		return nil
	})
	return g.Wait()
}
