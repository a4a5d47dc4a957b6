package resource

import "strings"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200

	// NoSort 未指定排序时的哨兵值
	NoSort = "1"
)

// MatchMode 过滤值匹配方式
type MatchMode int

const (
	MatchContains MatchMode = iota
	MatchStarts
	MatchEnds
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchStarts:
		return "starts"
	case MatchEnds:
		return "ends"
	case MatchExact:
		return "exact"
	default:
		return "contains"
	}
}

// ParseMatchMode 不区分大小写，未知值按 contains 处理
func ParseMatchMode(s string) MatchMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "starts":
		return MatchStarts
	case "ends":
		return MatchEnds
	case "exact":
		return MatchExact
	default:
		return MatchContains
	}
}

// Direction 排序方向
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection 只有 desc（不区分大小写）是降序
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// QuerySpec 单次列表请求的参数，不持久化
type QuerySpec struct {
	Page      int
	PageSize  int
	Sort      string
	Direction Direction
	Filters   map[string]string
	Match     MatchMode
}

// Normalize page/pageSize 至少为 1，pageSize 不超过 MaxPageSize
func (q QuerySpec) Normalize() QuerySpec {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Direction != Desc {
		q.Direction = Asc
	}
	if q.Sort == "" {
		q.Sort = NoSort
	}
	return q
}

func (q QuerySpec) Offset() int {
	n := q.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Page 分页结果
type Page struct {
	Items    []map[string]any `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int64            `json:"total"`
}
