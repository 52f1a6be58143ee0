// Package config 提供應用配置管理，支援多來源優先級。
//
// 配置來源（優先級由高到低）：
//  1. 環境變數（執行期覆寫，前綴 DATACHAT_）
//  2. 配置檔（./config/config.yaml 或 ~/.datachat/config.yaml）
//  3. 預設值
//
// 主要配置類別：
//   - Models: 各 LLM 後端（deepseek / glm / kimi）的模型名、base_url、
//     API Key 環境變數名與取樣參數
//   - 路徑: CSV 資料目錄、報告輸出目錄、會話歷史目錄、日誌目錄
//   - Agent: 單輪對話的工具呼叫回合上限
//
// 安全性：API Key 優先從環境變數讀取，配置檔中的金鑰僅作為後備；
// 金鑰永不寫入日誌。
//
// 錯誤處理：使用哨兵錯誤搭配 errors.Is()，以 fmt.Errorf("%w") 附加細節。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey 表示所需的 API Key 既不在環境變數也不在配置檔中。
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownModel 表示請求的模型名稱未在配置中定義。
	ErrUnknownModel = errors.New("unknown model")

	// ErrNoModels 表示配置中沒有定義任何模型。
	ErrNoModels = errors.New("no models configured")

	// ErrInvalidTemperature 表示取樣溫度超出 [0, 2] 範圍。
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens 表示 max_tokens 超出合理範圍。
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxToolRounds 表示工具呼叫回合上限不合法。
	ErrInvalidMaxToolRounds = errors.New("invalid max tool rounds")
)

const (
	// DefaultMaxToolRounds 單輪對話允許的工具執行回合數上限。
	// 模型若持續請求工具超過此數，該輪強制結束並回傳診斷訊息。
	DefaultMaxToolRounds = 8

	// MaxAllowedToolRounds 絕對上限，防止配置錯誤造成資源耗盡。
	MaxAllowedToolRounds = 64

	// DefaultHTTPTimeoutSeconds 模型後端 HTTP 請求的預設逾時。
	DefaultHTTPTimeoutSeconds = 120
)

// ModelConfig 單一 LLM 後端的配置。
type ModelConfig struct {
	// Name 送往後端的模型識別字串，如 "deepseek-chat"。
	Name string `mapstructure:"name"`
	// BaseURL OpenAI 相容 API 的基底位址。
	BaseURL string `mapstructure:"base_url"`
	// APIKeyEnv 存放金鑰的環境變數名稱。
	APIKeyEnv string `mapstructure:"api_key_env"`
	// APIKey 配置檔中的後備金鑰，環境變數優先。
	APIKey string `mapstructure:"api_key"`

	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// AppConfig 互動行為相關配置。
type AppConfig struct {
	// AutoUseDefault 為 true 時跳過啟動時的模型選擇，直接使用 DefaultModel。
	AutoUseDefault bool `mapstructure:"auto_use_default"`
	// Language 回覆語言偏好，預設 zh。
	Language string `mapstructure:"language"`
}

// LogConfig 日誌相關配置。
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	// Dir 模型呼叫記錄（JSONL）的輸出目錄。
	Dir string `mapstructure:"dir"`
}

// AgentConfig 控制迴圈相關配置。
type AgentConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
}

// ReportConfig 報告產生相關配置。
type ReportConfig struct {
	// FontPath 內嵌中文字型檔路徑（選填）。留空時 PDF 使用內建字型，
	// 中文字元可能無法正確顯示。
	FontPath string `mapstructure:"font_path"`
}

// Config 應用整體配置。
type Config struct {
	DefaultModel string                 `mapstructure:"default_model"`
	Models       map[string]ModelConfig `mapstructure:"models"`

	// DataDir CSV 資料沙箱根目錄，工具只能讀取此目錄內的檔案。
	DataDir string `mapstructure:"data_dir"`
	// OutputDir 報告輸出根目錄。
	OutputDir string `mapstructure:"output_dir"`
	// HistoryDir 會話 JSON 檔存放目錄。
	HistoryDir string `mapstructure:"history_dir"`

	App    AppConfig    `mapstructure:"app"`
	Log    LogConfig    `mapstructure:"log"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Report ReportConfig `mapstructure:"report"`

	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds"`
}

// Load 載入配置。path 非空時強制使用該檔案；
// 否則依序搜尋 ./config、目前目錄與 ~/.datachat。
// 找不到配置檔不是錯誤，會退回預設值（模型仍需環境變數提供金鑰）。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DATACHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".datachat"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
			}
			// 沒有配置檔時使用預設值
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_model", "deepseek")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("output_dir", "./reports")
	v.SetDefault("history_dir", "./chat_history")
	v.SetDefault("app.auto_use_default", true)
	v.SetDefault("app.language", "zh")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "./logs")
	v.SetDefault("agent.max_tool_rounds", DefaultMaxToolRounds)
	v.SetDefault("http_timeout_seconds", DefaultHTTPTimeoutSeconds)

	// 三個內建後端都使用 OpenAI 相容的 chat completions 介面
	v.SetDefault("models.deepseek", map[string]any{
		"name":        "deepseek-chat",
		"base_url":    "https://api.deepseek.com/v1",
		"api_key_env": "DEEPSEEK_API_KEY",
		"temperature": 0.7,
		"max_tokens":  2000,
	})
	v.SetDefault("models.glm", map[string]any{
		"name":        "glm-4-plus",
		"base_url":    "https://open.bigmodel.cn/api/paas/v4",
		"api_key_env": "GLM_API_KEY",
		"temperature": 0.7,
		"max_tokens":  2000,
	})
	v.SetDefault("models.kimi", map[string]any{
		"name":        "moonshot-v1-8k",
		"base_url":    "https://api.moonshot.cn/v1",
		"api_key_env": "KIMI_API_KEY",
		"temperature": 0.7,
		"max_tokens":  2000,
	})
}

// Validate 檢查配置的完整性與數值範圍。
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return ErrNoModels
	}

	if c.DefaultModel != "" {
		if _, ok := c.Models[c.DefaultModel]; !ok {
			return fmt.Errorf("%w: 預設模型 %q 未定義", ErrUnknownModel, c.DefaultModel)
		}
	}

	for name, m := range c.Models {
		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("%w: 模型 %s 的 temperature 為 %.2f，允許範圍 [0, 2]",
				ErrInvalidTemperature, name, m.Temperature)
		}
		if m.MaxTokens < 0 || m.MaxTokens > 1_000_000 {
			return fmt.Errorf("%w: 模型 %s 的 max_tokens 為 %d", ErrInvalidMaxTokens, name, m.MaxTokens)
		}
	}

	if c.Agent.MaxToolRounds < 0 || c.Agent.MaxToolRounds > MaxAllowedToolRounds {
		return fmt.Errorf("%w: %d，允許範圍 [0, %d]（0 代表使用預設值）",
			ErrInvalidMaxToolRounds, c.Agent.MaxToolRounds, MaxAllowedToolRounds)
	}

	return nil
}

// MaxToolRounds 回傳工具回合上限，未設定時使用預設值。
func (c *Config) MaxToolRounds() int {
	if c.Agent.MaxToolRounds <= 0 {
		return DefaultMaxToolRounds
	}
	return c.Agent.MaxToolRounds
}

// ResolveAPIKey 解析指定模型的 API Key：環境變數優先，其次配置檔。
// 兩者皆無時回傳 ErrMissingAPIKey。
func (c *Config) ResolveAPIKey(modelName string) (string, error) {
	m, ok := c.Models[modelName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, modelName)
	}

	if m.APIKeyEnv != "" {
		if key := os.Getenv(m.APIKeyEnv); key != "" {
			return key, nil
		}
	}
	if m.APIKey != "" {
		return m.APIKey, nil
	}

	return "", fmt.Errorf("%w: 請設定環境變數 %s 或在配置檔中提供 api_key",
		ErrMissingAPIKey, m.APIKeyEnv)
}

// ModelNames 回傳所有已定義模型的名稱，按字母排序。
// 啟動選單的編號依賴此順序，不可隨 map 迭代順序漂移。
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAPIKeys 回傳各模型是否已取得金鑰，供啟動時的模型選單顯示狀態。
func (c *Config) CheckAPIKeys() map[string]bool {
	status := make(map[string]bool, len(c.Models))
	for name := range c.Models {
		_, err := c.ResolveAPIKey(name)
		status[name] = err == nil
	}
	return status
}
