package cmd

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mssql-openapi/pkg/server"
	"mssql-openapi/pkg/util"
)

const defaultConfigPath = "./etc/config/config.yaml"

// NewRootCommand server 与 sync 共用 -c 指定的配置文件
func NewRootCommand() *cobra.Command {
	var configFilePath string
	root := &cobra.Command{
		Use:   util.AppName,
		Short: "SQL Server 视图只读接口与多维表格同步",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      util.GetVersion().Version,
	}
	root.PersistentFlags().StringVarP(&configFilePath, "config", "c", defaultConfigPath, "配置文件路径")
	root.AddCommand(NewServerCommand(), NewSyncCommand())
	return root
}

// loadConfig 读取配置并按配置的日志级别重建全局 logger
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	configFilePath := cmd.Flag("config").Value.String()
	if configFilePath == "" {
		configFilePath = defaultConfigPath
	}
	cfg, err := server.TryLoadFromDisk(configFilePath)
	if err != nil {
		return nil, errors.Errorf("读取本地配置文件错误:%s", err.Error())
	}
	if cfg.LogLevel != "" {
		zap.ReplaceGlobals(util.InitZapLog(cfg.LogLevel))
	}
	return cfg, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
}
