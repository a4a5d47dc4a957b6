package store

import "github.com/pkg/errors"

type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
	// RetentionDays 同步记录保留天数，0 表示不清理
	RetentionDays int `json:"retentionDays" yaml:"retentionDays"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Dir:           "./etc/data",
		RetentionDays: 30,
	}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Enabled && c.Dir == "" {
		errs = append(errs, errors.New("store.dir 不能为空"))
	}
	if c.RetentionDays < 0 {
		errs = append(errs, errors.New("store.retentionDays 不能为负数"))
	}
	return errs
}
