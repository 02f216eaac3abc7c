// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
judgment:
  provider: rules
  rules:
    path: configs/rules.yaml
catalog:
  source: postgres
database:
  postgres:
    host: localhost
    database: krishi
    user: app
  redis:
    address: localhost:6379
workers:
  recommend-subsidies:
    enabled: true
`

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "subsidy-recommender", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ProviderRules, cfg.Judgment.Provider)
	assert.Equal(t, 30000, cfg.Judgment.Timeout)
	assert.Equal(t, 1500, cfg.Judgment.MaxTokens)
	assert.Equal(t, "subsidies", cfg.Catalog.Index)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.Catalog.CatalogTTL))
	assert.Equal(t, 5*time.Minute, GetDuration(cfg.Catalog.ResultTTL))
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)

	w := GetWorkerConfig(cfg, "recommend-subsidies")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 300000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test")

	cfg, err := LoadFromFile(writeConfig(t, `
judgment:
  provider: anthropic
  anthropic:
    api_key: ${TEST_ANTHROPIC_KEY}
catalog:
  source: elasticsearch
database:
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Judgment.Anthropic.APIKey)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.Addresses)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown provider",
			content: "judgment:\n  provider: oracle\n",
			wantErr: "unknown judgment.provider",
		},
		{
			name:    "rules without path",
			content: "judgment:\n  provider: rules\n",
			wantErr: "judgment.rules.path",
		},
		{
			name:    "postgres without host",
			content: "judgment:\n  provider: openai\ndatabase:\n  redis:\n    address: x:6379\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "unknown catalog source",
			content: "judgment:\n  provider: openai\ncatalog:\n  source: csv\n",
			wantErr: "unknown catalog.source",
		},
		{
			name: "missing redis",
			content: "judgment:\n  provider: openai\ncatalog:\n  source: elasticsearch\n" +
				"database:\n  elasticsearch:\n    url: http://es:9200\n",
			wantErr: "database.redis.address",
		},
		{
			name: "camunda without broker",
			content: "judgment:\n  provider: openai\ncatalog:\n  source: elasticsearch\n" +
				"database:\n  elasticsearch:\n    url: http://es:9200\n  redis:\n    address: r:6379\n" +
				"camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyJudgmentDefaults(t *testing.T) {
	var j JudgmentConfig
	j.OpenAI.Model = "custom"
	ApplyJudgmentDefaults(&j)

	assert.Equal(t, ProviderOpenAI, j.Provider)
	assert.Equal(t, "custom", j.OpenAI.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", j.OpenAI.BaseURL)
	assert.Equal(t, 0.3, j.Temperature)
	assert.NotEmpty(t, j.Anthropic.Model)
	assert.NotEmpty(t, j.Gemini.Model)
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"recommend-subsidies": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "recommend-subsidies"))
	assert.True(t, IsWorkerEnabled(cfg, "other"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "recommend-subsidies").MaxJobsActive)
	assert.Equal(t, 300000, GetWorkerConfig(cfg, "other").Timeout)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", p.GetDSN())

	assert.Equal(t, "http://a", ElasticsearchConfig{Addresses: []string{"http://a"}}.GetURL())
	assert.Equal(t, "", ElasticsearchConfig{}.GetURL())
}
