package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// 指向不存在配置檔的目錄，應退回預設值
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "deepseek", cfg.DefaultModel)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./chat_history", cfg.HistoryDir)
	assert.Equal(t, DefaultMaxToolRounds, cfg.MaxToolRounds())

	require.Contains(t, cfg.Models, "deepseek")
	require.Contains(t, cfg.Models, "glm")
	require.Contains(t, cfg.Models, "kimi")
	assert.Equal(t, "deepseek-chat", cfg.Models["deepseek"].Name)
	assert.Equal(t, "DEEPSEEK_API_KEY", cfg.Models["deepseek"].APIKeyEnv)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
default_model: glm
data_dir: /tmp/csv
agent:
  max_tool_rounds: 3
models:
  glm:
    name: glm-4-plus
    base_url: https://open.bigmodel.cn/api/paas/v4
    api_key_env: GLM_API_KEY
    temperature: 0.5
    max_tokens: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "glm", cfg.DefaultModel)
	assert.Equal(t, "/tmp/csv", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxToolRounds())
	assert.InDelta(t, 0.5, cfg.Models["glm"].Temperature, 1e-9)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateUnknownDefaultModel(t *testing.T) {
	cfg := &Config{
		DefaultModel: "gpt5",
		Models:       map[string]ModelConfig{"deepseek": {}},
	}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestValidateTemperatureRange(t *testing.T) {
	cfg := &Config{
		DefaultModel: "deepseek",
		Models: map[string]ModelConfig{
			"deepseek": {Temperature: 3.0},
		},
	}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidTemperature)
}

func TestValidateMaxToolRounds(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{"deepseek": {}},
		Agent:  AgentConfig{MaxToolRounds: MaxAllowedToolRounds + 1},
	}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidMaxToolRounds)
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{
			"deepseek": {APIKeyEnv: "TEST_DEEPSEEK_KEY", APIKey: "from-config"},
		},
	}

	// 環境變數優先
	t.Setenv("TEST_DEEPSEEK_KEY", "from-env")
	key, err := cfg.ResolveAPIKey("deepseek")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	// 環境變數缺席時退回配置檔
	t.Setenv("TEST_DEEPSEEK_KEY", "")
	key, err = cfg.ResolveAPIKey("deepseek")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)
}

func TestResolveAPIKeyMissing(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{
			"kimi": {APIKeyEnv: "TEST_KIMI_KEY_UNSET"},
		},
	}
	t.Setenv("TEST_KIMI_KEY_UNSET", "")

	_, err := cfg.ResolveAPIKey("kimi")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = cfg.ResolveAPIKey("nonexistent")
	require.True(t, errors.Is(err, ErrUnknownModel))
}

func TestModelNamesSorted(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{
			"kimi":     {},
			"deepseek": {},
			"glm":      {},
		},
	}

	// map 迭代順序是隨機的，回傳值必須穩定排序
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"deepseek", "glm", "kimi"}, cfg.ModelNames())
	}
}

func TestCheckAPIKeys(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{
			"a": {APIKeyEnv: "TEST_KEY_A"},
			"b": {APIKeyEnv: "TEST_KEY_B"},
		},
	}
	t.Setenv("TEST_KEY_A", "secret")
	t.Setenv("TEST_KEY_B", "")

	status := cfg.CheckAPIKeys()
	assert.True(t, status["a"])
	assert.False(t, status["b"])
}
