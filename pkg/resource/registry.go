package resource

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/samber/lo"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidIdentifier 列名、视图名只允许字母数字下划线
func ValidIdentifier(id string) bool {
	return identPattern.MatchString(id)
}

// Definition 配置文件中的资源声明
type Definition struct {
	View          string   `json:"view" yaml:"view" mapstructure:"view"`
	PK            string   `json:"pk,omitempty" yaml:"pk,omitempty" mapstructure:"pk"`
	AllowSort     []string `json:"allowSort,omitempty" yaml:"allowSort,omitempty" mapstructure:"allowSort"`
	AllowFilter   []string `json:"allowFilter,omitempty" yaml:"allowFilter,omitempty" mapstructure:"allowFilter"`
	FallbackViews []string `json:"fallbackViews,omitempty" yaml:"fallbackViews,omitempty" mapstructure:"fallbackViews"`
}

// Config 已校验的资源配置，构建后只读
type Config struct {
	Name          string
	View          string
	PK            string
	AllowSort     []string
	AllowFilter   []string
	FallbackViews []string

	sortSet   map[string]struct{}
	filterSet map[string]struct{}
}

func (c *Config) CanSort(col string) bool {
	_, ok := c.sortSet[col]
	return ok
}

func (c *Config) CanFilter(col string) bool {
	_, ok := c.filterSet[col]
	return ok
}

// Views 候选视图，主视图在前
func (c *Config) Views() []string {
	return lo.Uniq(append([]string{c.View}, c.FallbackViews...))
}

// DefaultDefinitions 部署内置的资源
func DefaultDefinitions() map[string]Definition {
	return map[string]Definition{
		"productos": {
			View:        "view_ProductsPricesRegions",
			PK:          "productId",
			AllowSort:   []string{"productId", "CodigoProducto", "Especificacion"},
			AllowFilter: []string{"productId", "CodigoProducto", "Especificacion", "Descripcion"},
		},
		"inventories": {
			View:        "vw_inventories",
			PK:          "code",
			AllowSort:   []string{"code", "aviableQuantity"},
			AllowFilter: []string{"code", "spec", "warehouseCategory", "warehouseCode"},
		},
		"customers": {
			View:        "getCustomers",
			PK:          "customer_id",
			AllowSort:   []string{"customer_id", "customer_code"},
			AllowFilter: []string{"customer_id", "customer_code"},
		},
		"orders": {
			View:        "vw_AllOrders_Bamboo",
			PK:          "BillCode",
			AllowSort:   []string{"BillCode", "customerCode"},
			AllowFilter: []string{"BillCode", "customerCode"},
		},
	}
}

// Registry 资源名到配置的静态映射，并发只读
type Registry struct {
	resources map[string]*Config
}

// NewRegistry 校验全部声明，任何非法标识符都会导致构建失败
func NewRegistry(defs map[string]Definition) (*Registry, error) {
	r := &Registry{resources: make(map[string]*Config, len(defs))}
	for name, def := range defs {
		cfg, err := newConfig(name, def)
		if err != nil {
			return nil, err
		}
		r.resources[name] = cfg
	}
	return r, nil
}

// MustDefaultRegistry 内置资源注册表
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}

func newConfig(name string, def Definition) (*Config, error) {
	if name == "" {
		return nil, fmt.Errorf("资源名不能为空")
	}
	if def.View == "" {
		return nil, fmt.Errorf("资源 %s 未配置 view", name)
	}
	idents := append([]string{def.View}, def.FallbackViews...)
	idents = append(idents, def.AllowSort...)
	idents = append(idents, def.AllowFilter...)
	if def.PK != "" {
		idents = append(idents, def.PK)
	}
	for _, id := range idents {
		if !ValidIdentifier(id) {
			return nil, fmt.Errorf("资源 %s 包含非法标识符 %q: %w", name, id, ErrInvalidIdentifier)
		}
	}
	return &Config{
		Name:          name,
		View:          def.View,
		PK:            def.PK,
		AllowSort:     lo.Uniq(def.AllowSort),
		AllowFilter:   lo.Uniq(def.AllowFilter),
		FallbackViews: lo.Uniq(def.FallbackViews),
		sortSet:       toSet(def.AllowSort),
		filterSet:     toSet(def.AllowFilter),
	}, nil
}

func toSet(cols []string) map[string]struct{} {
	return lo.SliceToMap(cols, func(c string) (string, struct{}) { return c, struct{}{} })
}

// Resolve 查找资源配置
func (r *Registry) Resolve(name string) (*Config, error) {
	cfg, ok := r.resources[name]
	if !ok {
		return nil, ErrUnknownResource
	}
	return cfg, nil
}

// Names 已注册的资源名（有序）
func (r *Registry) Names() []string {
	names := lo.Keys(r.resources)
	sort.Strings(names)
	return names
}
