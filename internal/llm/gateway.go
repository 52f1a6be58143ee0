package llm

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/log"
)

// Gateway 管理多個 OpenAI 相容後端，提供依名稱切換的能力。
// 所有方法都是並行安全的。
type Gateway struct {
	cfg        *config.Config
	logger     log.Logger
	httpClient *http.Client

	mu          sync.RWMutex
	current     Client
	currentName string
}

// NewGateway 建立模型閘道並切換到預設模型。
func NewGateway(cfg *config.Config, logger log.Logger) (*Gateway, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	g := &Gateway{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
	}

	if _, err := g.Switch(cfg.DefaultModel); err != nil {
		return nil, err
	}
	return g, nil
}

// Switch 切換到指定名稱的模型後端。API key 每次切換時重新解析，
// 環境變數優先於設定檔。切換失敗時維持原本的 client 不變。
func (g *Gateway) Switch(name string) (Client, error) {
	mc, ok := g.cfg.Models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownModel, name)
	}

	apiKey, err := g.cfg.ResolveAPIKey(name)
	if err != nil {
		return nil, err
	}

	client, err := NewOpenAIClient(OpenAIConfig{
		Name:        name,
		Model:       mc.Name,
		BaseURL:     mc.BaseURL,
		APIKey:      apiKey,
		Temperature: mc.Temperature,
		MaxTokens:   mc.MaxTokens,
		HTTPClient:  g.httpClient,
		Logger:      g.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("建立 %s client 失敗: %w", name, err)
	}

	g.mu.Lock()
	g.current = client
	g.currentName = name
	g.mu.Unlock()

	g.logger.Info("模型已切換", "backend", name, "model", mc.Name)
	return client, nil
}

// Current 回傳目前使用中的 client。
func (g *Gateway) Current() Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// CurrentName 回傳目前後端的配置名稱。
func (g *Gateway) CurrentName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentName
}

// Available 回傳所有已配置的後端名稱，按字母排序。
func (g *Gateway) Available() []string {
	return g.cfg.ModelNames()
}
