package resource

import (
	"sort"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike 转义 LIKE 模式中的 \ % _
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Statement 参数化 SQL，值只通过 Args 传递
type Statement struct {
	SQL  string
	Args []any
}

// Builder 将不可信的请求参数翻译为参数化 SQL
type Builder struct {
	dialect Dialect
}

func NewBuilder(d Dialect) *Builder {
	if d == nil {
		d = sqlServerDialect{}
	}
	return &Builder{dialect: d}
}

func (b *Builder) Dialect() Dialect {
	return b.dialect
}

func (b *Builder) quote(ident string) (string, error) {
	if !ValidIdentifier(ident) {
		return "", ErrInvalidIdentifier
	}
	return b.dialect.Quote(ident), nil
}

// ResolveSort 哨兵值返回空串；否则必须在排序白名单内
func ResolveSort(cfg *Config, sortCol string) (string, error) {
	if sortCol == "" || sortCol == NoSort {
		return "", nil
	}
	if !cfg.CanSort(sortCol) {
		return "", ErrInvalidSort
	}
	return sortCol, nil
}

// ResolveFilters 丢弃未授权的列和空值，保留值去空白
func ResolveFilters(cfg *Config, filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for col, raw := range filters {
		if !cfg.CanFilter(col) {
			continue
		}
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		out[col] = val
	}
	return out
}

// where 按列名排序生成谓词，保证 SQL 文本稳定
func (b *Builder) where(filters map[string]string, mode MatchMode) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		q, err := b.quote(col)
		if err != nil {
			return "", nil, err
		}
		val := filters[col]
		if mode == MatchExact {
			parts = append(parts, q+" = ?")
			args = append(args, val)
			continue
		}
		parts = append(parts, q+" LIKE ? "+b.dialect.LikeEscape())
		args = append(args, likePattern(val, mode))
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

func likePattern(val string, mode MatchMode) string {
	esc := EscapeLike(val)
	switch mode {
	case MatchStarts:
		return esc + "%"
	case MatchEnds:
		return "%" + esc
	default:
		return "%" + esc + "%"
	}
}

func (b *Builder) orderBy(cfg *Config, sortCol string, dir Direction) (string, error) {
	col := sortCol
	if col == "" {
		col = cfg.PK
	}
	if col == "" {
		return "ORDER BY " + b.dialect.NeutralOrder(), nil
	}
	q, err := b.quote(col)
	if err != nil {
		return "", err
	}
	return "ORDER BY " + q + " " + string(dir), nil
}

// List 生成列表查询与计数查询，两者共用同一组过滤条件
func (b *Builder) List(cfg *Config, spec QuerySpec) (items Statement, count Statement, err error) {
	spec = spec.Normalize()
	view, err := b.quote(cfg.View)
	if err != nil {
		return items, count, err
	}
	sortCol, err := ResolveSort(cfg, spec.Sort)
	if err != nil {
		return items, count, err
	}
	where, whereArgs, err := b.where(ResolveFilters(cfg, spec.Filters), spec.Match)
	if err != nil {
		return items, count, err
	}
	order, err := b.orderBy(cfg, sortCol, spec.Direction)
	if err != nil {
		return items, count, err
	}
	page, pageArgs := b.dialect.Paginate(spec.Offset(), spec.PageSize)

	items = Statement{
		SQL:  joinSQL("SELECT * FROM", view, where, order, page),
		Args: concatArgs(whereArgs, pageArgs),
	}
	count = Statement{
		SQL:  joinSQL("SELECT COUNT(1) AS cnt FROM", view, where),
		Args: concatArgs(whereArgs),
	}
	return items, count, nil
}

// ByID 单行查询；资源声明了主键时只允许按主键查
func (b *Builder) ByID(cfg *Config, id string, idCol string) (Statement, error) {
	if cfg.PK != "" && idCol != "" && idCol != cfg.PK {
		return Statement{}, ErrInvalidIdColumn
	}
	col := idCol
	if col == "" {
		col = cfg.PK
	}
	if col == "" {
		col = "Id"
	}
	view, err := b.quote(cfg.View)
	if err != nil {
		return Statement{}, err
	}
	q, err := b.quote(col)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  b.dialect.SelectFirst(view, q+" = ?"),
		Args: []any{id},
	}, nil
}

// Lookup 按若干列等值查询视图，orderCol 非空时按其降序
func (b *Builder) Lookup(view string, cols []string, vals []any, orderCol string) (Statement, error) {
	qv, err := b.quote(view)
	if err != nil {
		return Statement{}, err
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		q, err := b.quote(col)
		if err != nil {
			return Statement{}, err
		}
		parts = append(parts, q+" = ?")
	}
	order := ""
	if orderCol != "" {
		q, err := b.quote(orderCol)
		if err != nil {
			return Statement{}, err
		}
		order = "ORDER BY " + q + " DESC"
	}
	return Statement{
		SQL:  joinSQL("SELECT * FROM", qv, "WHERE "+strings.Join(parts, " AND "), order),
		Args: concatArgs(vals),
	}, nil
}

func joinSQL(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func concatArgs(groups ...[]any) []any {
	out := make([]any, 0)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
