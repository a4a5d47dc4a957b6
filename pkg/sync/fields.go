package sync

import (
	"strings"
	"time"
	"unicode"

	"github.com/iancoleman/strcase"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

var recordIDFields = []string{"record_id", "recordId", "id"}

// Condition 远端搜索条件
type Condition struct {
	FieldName string   `json:"field_name"`
	Operator  string   `json:"operator"`
	Value     []string `json:"value"`
}

// FilterGroup 条件组，children 与 conditions 可同时出现
type FilterGroup struct {
	Conjunction string        `json:"conjunction"`
	Conditions  []Condition   `json:"conditions,omitempty"`
	Children    []FilterGroup `json:"children,omitempty"`
}

type SearchPayload struct {
	ViewID string      `json:"view_id,omitempty"`
	Filter FilterGroup `json:"filter"`
}

// keySearch 外层 and，内层对单个条件取 or
func keySearch(field, key, viewID string) SearchPayload {
	return SearchPayload{
		ViewID: viewID,
		Filter: FilterGroup{
			Conjunction: "and",
			Children: []FilterGroup{{
				Conjunction: "or",
				Conditions: []Condition{{
					FieldName: field,
					Operator:  "is",
					Value:     []string{key},
				}},
			}},
		},
	}
}

// keyVariants 业务键字段名的常见写法，如 productId ProductId productID product_id
func keyVariants(field string) []string {
	variants := []string{field, upperFirst(field), lowerFirst(field)}
	if strings.HasSuffix(field, "Id") {
		variants = append(variants, strings.TrimSuffix(field, "Id")+"ID")
	}
	variants = append(variants, strcase.ToSnake(field), strings.ToLower(field))
	return lo.Uniq(variants)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// firstString 按顺序取第一个非空值
func firstString(row map[string]any, names []string) string {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(cast.ToString(toFieldValue(v))); s != "" {
			return s
		}
	}
	return ""
}

func extractKey(row map[string]any, field string) string {
	return firstString(row, keyVariants(field))
}

func recordID(rec map[string]any) string {
	return firstString(rec, recordIDFields)
}

// toFields 源数据行转换为远端字段，空值不写入
func toFields(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if fv := toFieldValue(v); fv != nil {
			out[k] = fv
		}
	}
	return out
}

func toFieldValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UnixMilli()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UnixMilli()
	case []byte:
		return string(t)
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	default:
		return cast.ToString(t)
	}
}
