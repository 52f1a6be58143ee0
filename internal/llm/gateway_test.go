package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-wb/datachat/internal/config"
)

func gatewayConfig() *config.Config {
	return &config.Config{
		DefaultModel: "deepseek",
		Models: map[string]config.ModelConfig{
			"deepseek": {
				Name:        "deepseek-chat",
				BaseURL:     "https://api.deepseek.com/v1",
				APIKeyEnv:   "DEEPSEEK_API_KEY",
				APIKey:      "sk-config-deepseek",
				Temperature: 0.3,
			},
			"glm": {
				Name:      "glm-4-plus",
				BaseURL:   "https://open.bigmodel.cn/api/paas/v4",
				APIKeyEnv: "GLM_API_KEY",
			},
		},
		HTTPTimeoutSeconds: config.DefaultHTTPTimeoutSeconds,
	}
}

func TestGatewayStartsOnDefaultModel(t *testing.T) {
	g, err := NewGateway(gatewayConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", g.CurrentName())
	require.NotNil(t, g.Current())
	assert.Equal(t, "deepseek-chat", g.Current().Model())
}

func TestGatewaySwitch(t *testing.T) {
	t.Setenv("GLM_API_KEY", "sk-env-glm")

	g, err := NewGateway(gatewayConfig(), nil)
	require.NoError(t, err)

	client, err := g.Switch("glm")
	require.NoError(t, err)
	assert.Equal(t, "glm", g.CurrentName())
	assert.Equal(t, "glm-4-plus", client.Model())
	assert.Same(t, client, g.Current())
}

func TestGatewaySwitchUnknownKeepsCurrent(t *testing.T) {
	g, err := NewGateway(gatewayConfig(), nil)
	require.NoError(t, err)

	_, err = g.Switch("claude")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnknownModel)
	assert.Equal(t, "deepseek", g.CurrentName())
}

func TestGatewaySwitchMissingKeyKeepsCurrent(t *testing.T) {
	t.Setenv("GLM_API_KEY", "")

	g, err := NewGateway(gatewayConfig(), nil)
	require.NoError(t, err)

	// glm 沒有設定 API key，環境變數也沒有
	_, err = g.Switch("glm")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Equal(t, "deepseek", g.CurrentName())
}

func TestGatewayAvailable(t *testing.T) {
	g, err := NewGateway(gatewayConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"deepseek", "glm"}, g.Available())
}
