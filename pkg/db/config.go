package db

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	TypeSQLServer = "sqlserver"
	TypeMySQL     = "mysql"
	TypePostgres  = "postgres"
)

type Config struct {
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	Username        string `json:"username" yaml:"username"`
	Password        string `json:"password" yaml:"password"`
	Database        string `json:"database" yaml:"database"`
	MaxIdleConns    int    `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty"`
	MaxOpenConns    int    `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty"`
	ConnMaxLifetime int    `json:"connMaxLifetime,omitempty" yaml:"connMaxLifetime,omitempty"`
	ConnMaxIdleTime int    `json:"connMaxIdleTime,omitempty" yaml:"connMaxIdleTime,omitempty"`
	Debug           bool   `json:"debug" yaml:"debug"`
	Schema          string `json:"schema" yaml:"schema"`
	DBType          string `json:"dbType" yaml:"dbType"`
	Encrypt         bool   `json:"encrypt" yaml:"encrypt"`
}

func (t *Config) Validate() []error {
	var errs = make([]error, 0)
	if t.Username == "" || t.Password == "" {
		errs = append(errs, errors.Errorf("连接的数据库用户名或密码为空"))
	}
	if t.Database == "" {
		errs = append(errs, errors.Errorf("没有指定需要连接的数据库名称"))
	}
	switch t.Type() {
	case TypeSQLServer, TypeMySQL, TypePostgres:
	default:
		errs = append(errs, errors.Errorf("不支持的数据库类型:%s", t.DBType))
	}
	return errs
}

func NewDefaultDBConfig() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            1433,
		MaxIdleConns:    0,
		MaxOpenConns:    10,
		ConnMaxLifetime: 3600, // 1小时
		ConnMaxIdleTime: 10,
		DBType:          TypeSQLServer,
	}
}

// Type 归一化后的数据库类型，空值视为 sqlserver
func (t *Config) Type() string {
	v := strings.ToLower(strings.TrimSpace(t.DBType))
	if v == "" || v == "mssql" {
		return TypeSQLServer
	}
	if v == "postgresql" {
		return TypePostgres
	}
	return v
}

func (t *Config) DSN() string {
	switch t.Type() {
	case TypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			t.Username, t.Password, t.Host, t.Port, t.Database)
	case TypePostgres:
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable search_path=%s",
			t.Host,
			t.Username,
			t.Password,
			t.Database,
			t.Port,
			t.Schema,
		)
	default:
		q := url.Values{}
		q.Set("database", t.Database)
		q.Set("encrypt", fmt.Sprintf("%t", t.Encrypt))
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(t.Username, t.Password),
			Host:     fmt.Sprintf("%s:%d", t.Host, t.Port),
			RawQuery: q.Encode(),
		}
		return u.String()
	}
}
