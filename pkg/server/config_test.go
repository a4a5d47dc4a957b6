package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mssql-openapi/pkg/resource"
)

const sampleYAML = `
clientName: test-client
port: 3100
apiKeys:
  - k1
  - k2
db:
  host: 10.0.0.5
  port: 1433
  username: sa
  password: secret
  database: erp
lark:
  appId: cli_1
  appSecret: s1
sync:
  schedule:
    enabled: true
    cron: "0 */5 * * * *"
  target:
    appId: bascn1
    tableId: tbl1
resources:
  widgets:
    view: vw_Widgets
    pk: Id
    allowSort: [Name]
    allowFilter: [Name, Code]
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestTryLoadFromDisk(t *testing.T) {
	cfg, err := TryLoadFromDisk(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-client", cfg.ClientName)
	assert.Equal(t, 3100, cfg.Port)
	assert.Equal(t, []string{"k1", "k2"}, cfg.APIKeys)
	assert.Equal(t, "10.0.0.5", cfg.DB.Host)
	assert.Equal(t, "cli_1", cfg.Lark.AppID)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 15, cfg.Lark.Timeout)
	assert.True(t, cfg.Sync.Schedule.Enabled)
	assert.Equal(t, "tbl1", cfg.Sync.Target.TableID)
	assert.Empty(t, cfg.Validate())

	reg, err := cfg.Registry()
	require.NoError(t, err)
	w, err := reg.Resolve("widgets")
	require.NoError(t, err)
	assert.Equal(t, "vw_Widgets", w.View)
	assert.True(t, w.CanFilter("Code"))
	_, err = reg.Resolve("productos")
	assert.NoError(t, err)
}

func TestTryLoadFromDiskEnvOverride(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("DB_HOST", "db.internal")
	cfg, err := TryLoadFromDisk(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 4100, cfg.Port)
	assert.Equal(t, "db.internal", cfg.DB.Host)
}

func TestTryLoadFromDiskJSON(t *testing.T) {
	cfg, err := TryLoadFromDisk(writeConfig(t, "config.json", `{"port": 3200, "apiKeys": ["k"], "db": {"username": "u", "password": "p", "database": "d"}}`))
	require.NoError(t, err)
	assert.Equal(t, 3200, cfg.Port)
	assert.Equal(t, "d", cfg.DB.Database)
}

func TestTryLoadFromDiskKeepsResourceNameCase(t *testing.T) {
	yamlCfg := sampleYAML + `
  OpenInvoices:
    view: vw_OpenInvoices
    pk: InvoiceId
    allowSort: [InvoiceId]
`
	cfg, err := TryLoadFromDisk(writeConfig(t, "config.yaml", yamlCfg))
	require.NoError(t, err)
	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Contains(t, reg.Names(), "OpenInvoices")
	assert.NotContains(t, reg.Names(), "openinvoices")
	inv, err := reg.Resolve("OpenInvoices")
	require.NoError(t, err)
	assert.Equal(t, "vw_OpenInvoices", inv.View)
	assert.True(t, inv.CanSort("InvoiceId"))

	jsonCfg := `{"apiKeys": ["k"], "resources": {"OpenInvoices": {"view": "vw_OpenInvoices", "pk": "InvoiceId"}}}`
	cfg, err = TryLoadFromDisk(writeConfig(t, "config.json", jsonCfg))
	require.NoError(t, err)
	reg, err = cfg.Registry()
	require.NoError(t, err)
	_, err = reg.Resolve("OpenInvoices")
	assert.NoError(t, err)
}

func TestTryLoadFromDiskMissing(t *testing.T) {
	_, err := TryLoadFromDisk(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	errs := cfg.Validate()
	// 缺少 apiKeys 与数据库凭证
	assert.NotEmpty(t, errs)

	cfg.APIKeys = []string{"k"}
	cfg.DB.Username, cfg.DB.Password, cfg.DB.Database = "u", "p", "d"
	assert.Empty(t, cfg.Validate())

	cfg.Sync.Schedule.Enabled = true
	assert.Len(t, cfg.Validate(), 1)
	cfg.Sync.Schedule.Enabled = false

	cfg.Resources = map[string]resource.Definition{"bad": {View: "x; DROP"}}
	assert.Len(t, cfg.Validate(), 1)
}
