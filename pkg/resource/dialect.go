package resource

import (
	"fmt"
	"strings"
)

// Dialect 不同数据库在标识符引用、分页、取首行上的差异
type Dialect interface {
	Name() string
	Quote(ident string) string
	// NeutralOrder 满足分页语法要求但不代表任何语义顺序的排序表达式
	NeutralOrder() string
	// Paginate 返回分页子句及其绑定参数
	Paginate(offset, limit int) (string, []any)
	// SelectFirst 在 where 条件下取一行
	SelectFirst(quotedView, where string) string
	// LikeEscape 附加在 LIKE 后的转义子句
	LikeEscape() string
}

// DialectFor 按数据库类型选择方言，未知类型回落到 sqlserver
func DialectFor(dbType string) Dialect {
	switch strings.ToLower(dbType) {
	case "mysql":
		return mysqlDialect{}
	case "postgres", "postgresql":
		return postgresDialect{}
	default:
		return sqlServerDialect{}
	}
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) Quote(ident string) string { return "[" + ident + "]" }

func (sqlServerDialect) NeutralOrder() string { return "(SELECT NULL)" }

// OFFSET ... FETCH 在 SQL Server 中必须跟在 ORDER BY 之后
func (sqlServerDialect) Paginate(offset, limit int) (string, []any) {
	return "OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", []any{offset, limit}
}

func (sqlServerDialect) SelectFirst(quotedView, where string) string {
	return fmt.Sprintf("SELECT TOP 1 * FROM %s WHERE %s", quotedView, where)
}

func (sqlServerDialect) LikeEscape() string { return `ESCAPE '\'` }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Quote(ident string) string { return "`" + ident + "`" }

func (mysqlDialect) NeutralOrder() string { return "NULL" }

func (mysqlDialect) Paginate(offset, limit int) (string, []any) {
	return "LIMIT ? OFFSET ?", []any{limit, offset}
}

func (mysqlDialect) SelectFirst(quotedView, where string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", quotedView, where)
}

// MySQL 字符串字面量中反斜杠本身需要转义
func (mysqlDialect) LikeEscape() string { return `ESCAPE '\\'` }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Quote(ident string) string { return `"` + ident + `"` }

func (postgresDialect) NeutralOrder() string { return "(SELECT NULL)" }

func (postgresDialect) Paginate(offset, limit int) (string, []any) {
	return "LIMIT ? OFFSET ?", []any{limit, offset}
}

func (postgresDialect) SelectFirst(quotedView, where string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", quotedView, where)
}

func (postgresDialect) LikeEscape() string { return `ESCAPE '\'` }
