package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"mssql-openapi/pkg/db"
	"mssql-openapi/pkg/lark"
	"mssql-openapi/pkg/nsc"
	"mssql-openapi/pkg/resource"
	"mssql-openapi/pkg/store"
	"mssql-openapi/pkg/sync"
	"mssql-openapi/pkg/util"
)

type Config struct {
	ClientName string           `json:"clientName" yaml:"clientName"`
	Port       int              `json:"port,omitempty" yaml:"port,omitempty"`
	LogLevel   string           `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	APIKeys    []string         `json:"apiKeys" yaml:"apiKeys"`
	Cors       *CorsConfig      `json:"cors,omitempty" yaml:"cors,omitempty"`
	DB         *db.Config       `json:"db,omitempty" yaml:"db,omitempty"`
	Lark       *lark.Config     `json:"lark,omitempty" yaml:"lark,omitempty"`
	Sync       *sync.Config     `json:"sync,omitempty" yaml:"sync,omitempty"`
	Nats       *nsc.NatsConfig  `json:"nats,omitempty" yaml:"nats,omitempty"`
	Store      *store.Config    `json:"store,omitempty" yaml:"store,omitempty"`
	// Resources 覆盖或追加内置资源
	Resources map[string]resource.Definition `json:"resources,omitempty" yaml:"resources,omitempty"`
}

type CorsConfig struct {
	AllowOrigins []string `json:"allowOrigins" yaml:"allowOrigins"`
}

func (g *Config) Validate() []error {
	var errs = make([]error, 0)
	if err := util.IsValidPort(g.Port); err != nil {
		errs = append(errs, err)
	}
	if len(g.APIKeys) == 0 {
		errs = append(errs, errors.New("未配置 apiKeys，/v1 接口将拒绝所有请求"))
	}
	if g.DB == nil {
		errs = append(errs, errors.New("缺少 db 配置"))
	} else if es := g.DB.Validate(); len(es) > 0 {
		errs = append(errs, es...)
	}
	if g.Lark != nil {
		errs = append(errs, g.Lark.Validate()...)
	}
	if g.Sync != nil {
		errs = append(errs, g.Sync.Validate()...)
	}
	if g.Store != nil {
		errs = append(errs, g.Store.Validate()...)
	}
	if g.Nats != nil {
		if err := g.Nats.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := g.Registry(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Registry 内置资源合并配置中的资源
func (g *Config) Registry() (*resource.Registry, error) {
	defs := resource.DefaultDefinitions()
	for name, def := range g.Resources {
		defs[name] = def
	}
	return resource.NewRegistry(defs)
}

func NewDefaultConfig() *Config {
	return &Config{
		ClientName: util.AppName,
		Port:       3000,
		LogLevel:   "info",
		Cors:       &CorsConfig{AllowOrigins: []string{"*"}},
		DB:         db.NewDefaultDBConfig(),
		Lark:       lark.NewDefaultConfig(),
		Sync:       sync.NewDefaultConfig(),
		Nats:       nsc.NewDefaultNatsConfig(),
		Store:      store.NewDefaultConfig(),
	}
}

func TryLoadFromDisk(configFilePath string) (*Config, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	viper.Reset()
	viper.AddConfigPath(dir)
	viper.SetConfigName(strings.TrimSuffix(file, fileType))
	viper.SetConfigType(strings.TrimPrefix(fileType, "."))
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "读取配置文件 %s 失败", configFilePath)
	}
	cfg := NewDefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = tagName(fileType)
	}); err != nil {
		return nil, err
	}
	resources, err := loadResources(configFilePath)
	if err != nil {
		return nil, err
	}
	cfg.Resources = resources
	return cfg, nil
}

// loadResources 直接解析文件中的 resources 段，viper 会把 map 的键转成小写
func loadResources(configFilePath string) (map[string]resource.Definition, error) {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return nil, err
	}
	var section struct {
		Resources map[string]resource.Definition `json:"resources" yaml:"resources"`
	}
	unmarshal := yaml.Unmarshal
	if tagName(filepath.Ext(configFilePath)) == "json" {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &section); err != nil {
		return nil, errors.Wrapf(err, "解析 %s 的 resources 配置失败", configFilePath)
	}
	return section.Resources, nil
}

func tagName(ext string) string {
	switch strings.TrimPrefix(ext, ".") {
	case "json":
		return "json"
	default:
		return "yaml"
	}
}
