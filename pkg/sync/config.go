package sync

import (
	"strings"

	"github.com/pkg/errors"

	"mssql-openapi/pkg/models"
)

type Config struct {
	Schedule *ScheduleConfig `json:"schedule" yaml:"schedule"`
	Target   *TargetConfig   `json:"target" yaml:"target"`
}

type ScheduleConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	RunOnStart bool   `json:"runOnStart" yaml:"runOnStart"`
	Cron       string `json:"cron,omitempty" yaml:"cron,omitempty"`
}

// TargetConfig 定时同步的目标表
type TargetConfig struct {
	AppID      string `json:"appId" yaml:"appId"`
	TableID    string `json:"tableId" yaml:"tableId"`
	ViewID     string `json:"viewId,omitempty" yaml:"viewId,omitempty"`
	DBPageSize int    `json:"dbPageSize,omitempty" yaml:"dbPageSize,omitempty"`
	PageSize   int    `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	Resource   string `json:"resource,omitempty" yaml:"resource,omitempty"`
	KeyField   string `json:"keyField,omitempty" yaml:"keyField,omitempty"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Schedule: &ScheduleConfig{Cron: "0 */30 * * * *"},
		Target: &TargetConfig{
			DBPageSize: DefaultDBPageSize,
			PageSize:   DefaultPageSize,
			Resource:   DefaultResource,
			KeyField:   DefaultKeyField,
		},
	}
}

// Validate 仅在启用定时同步时校验目标
func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Schedule == nil || !c.Schedule.Enabled {
		return errs
	}
	if n := len(strings.Fields(c.Schedule.Cron)); n != 5 && n != 6 {
		errs = append(errs, errors.Errorf("无效的 cron 表达式格式，应为5位或6位: %s", c.Schedule.Cron))
	}
	if c.Target == nil || c.Target.AppID == "" || c.Target.TableID == "" {
		errs = append(errs, errors.New("定时同步缺少 target.appId/target.tableId"))
	}
	return errs
}

// Request 目标配置转换为同步请求
func (t *TargetConfig) Request(trigger string) Request {
	if trigger == "" {
		trigger = models.TriggerCron
	}
	return Request{
		AppID:      t.AppID,
		TableID:    t.TableID,
		ViewID:     t.ViewID,
		DBPageSize: t.DBPageSize,
		PageSize:   t.PageSize,
		Resource:   t.Resource,
		KeyField:   t.KeyField,
		Trigger:    trigger,
	}
}
