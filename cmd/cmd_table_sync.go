package cmd

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mssql-openapi/pkg/models"
	"mssql-openapi/pkg/signals"
	"mssql-openapi/pkg/sync"
)

// NewSyncCommand 单次同步，命令行参数覆盖配置中的同步目标
func NewSyncCommand() *cobra.Command {
	var target sync.TargetConfig
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "数据库视图同步到多维表格",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			errs := cfg.DB.Validate()
			errs = append(errs, cfg.Lark.Validate()...)
			if err := joinErrors(errs); err != nil {
				return err
			}

			merged := mergeTarget(cfg.Sync, target)
			req := merged.Request(models.TriggerCLI)
			if req.AppID == "" || req.TableID == "" {
				return errors.New("缺少 appId 或 tableId")
			}

			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.engine.Run(signals.SetupSignalHandler(), req)
			if res != nil {
				zap.S().Infof("同步完成[%s]: 新增 %d, 更新 %d, 跳过 %d, 失败 %d, 页数 %d",
					res.RunID, res.Created, res.Updated, res.Skipped, len(res.Errors), res.Pages)
				for _, e := range res.Errors {
					zap.S().Warnf("  %s: %s", e.Key, e.Error)
				}
			}
			if err != nil {
				return errors.Wrap(err, "同步失败")
			}
			if len(res.Errors) > 0 {
				return stderrors.New("部分记录同步失败")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target.AppID, "appId", "", "多维表格 app token")
	cmd.Flags().StringVar(&target.TableID, "tableId", "", "数据表 ID")
	cmd.Flags().StringVar(&target.ViewID, "viewId", "", "视图 ID")
	cmd.Flags().IntVar(&target.DBPageSize, "dbPageSize", 0, "每页读取的数据库行数")
	cmd.Flags().IntVar(&target.PageSize, "pageSize", 0, "查找记录时的分页大小")
	cmd.Flags().StringVar(&target.Resource, "resource", "", "源资源名")
	cmd.Flags().StringVar(&target.KeyField, "keyField", "", "匹配键字段")
	return cmd
}

// mergeTarget 非空的命令行参数覆盖配置
func mergeTarget(cfg *sync.Config, flags sync.TargetConfig) sync.TargetConfig {
	var out sync.TargetConfig
	if cfg != nil && cfg.Target != nil {
		out = *cfg.Target
	}
	if flags.AppID != "" {
		out.AppID = flags.AppID
	}
	if flags.TableID != "" {
		out.TableID = flags.TableID
	}
	if flags.ViewID != "" {
		out.ViewID = flags.ViewID
	}
	if flags.DBPageSize > 0 {
		out.DBPageSize = flags.DBPageSize
	}
	if flags.PageSize > 0 {
		out.PageSize = flags.PageSize
	}
	if flags.Resource != "" {
		out.Resource = flags.Resource
	}
	if flags.KeyField != "" {
		out.KeyField = flags.KeyField
	}
	return out
}
