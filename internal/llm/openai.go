package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Noah-wb/datachat/internal/log"
)

const chatCompletionsPath = "/chat/completions"

// OpenAIConfig 建構 OpenAIClient 所需的參數。
type OpenAIConfig struct {
	// Name 配置中的後端識別名。
	Name string
	// Model 送往後端的模型字串。
	Model string
	// BaseURL API 基底位址，結尾斜線會被移除。
	BaseURL string
	APIKey  string

	Temperature float64
	MaxTokens   int

	// HTTPClient 為 nil 時使用帶逾時的預設 client。
	HTTPClient *http.Client
	Logger     log.Logger
}

// OpenAIClient 實作 Client，對接 OpenAI 相容的 chat completions API。
// DeepSeek、GLM、Kimi 都使用這套線上格式，僅 base_url 與模型名不同。
type OpenAIClient struct {
	name        string
	model       string
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      log.Logger
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient 建立 OpenAI 相容後端的 client。
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("API key 不可為空")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("模型名稱不可為空")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base URL 不可為空")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &OpenAIClient{
		name:        cfg.Name,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Name 回傳配置中的後端識別名。
func (c *OpenAIClient) Name() string { return c.name }

// Model 回傳後端模型字串。
func (c *OpenAIClient) Model() string { return c.model }

// Call 發送非串流的 chat completions 請求。
func (c *OpenAIClient) Call(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error) {
	body, err := c.newRequestBody(messages, tools, false)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if err := checkStatus(httpResp); err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: 解析回應失敗: %v", ErrModelCall, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: 回應中沒有 choices", ErrModelCall)
	}

	msg := resp.Choices[0].Message
	calls, err := decodeToolCalls(msg.ToolCalls)
	if err != nil {
		return nil, err
	}

	return &Response{Content: msg.Content, ToolCalls: calls}, nil
}

// Stream 發送串流請求。fn 會在每個內容片段到達時收到「目前累積的完整
// 內容」。工具呼叫的增量片段在內部組裝，不經過 fn。
func (c *OpenAIClient) Stream(ctx context.Context, messages []Message, tools []ToolDef, fn StreamFunc) (*Response, error) {
	body, err := c.newRequestBody(messages, tools, true)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if err := checkStatus(httpResp); err != nil {
		return nil, err
	}

	var content strings.Builder
	acc := newToolCallAccumulator()

	err = consumeSSE(ctx, httpResp.Body, func(_, data string) error {
		if data == "[DONE]" {
			return nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("%w: 解析串流片段失敗: %v", ErrModelCall, err)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}

		delta := chunk.Choices[0].Delta
		for _, tc := range delta.ToolCalls {
			acc.add(tc)
		}
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if fn != nil {
				if err := fn(ctx, content.String()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	calls, err := acc.finish()
	if err != nil {
		return nil, err
	}

	return &Response{Content: content.String(), ToolCalls: calls}, nil
}

func (c *OpenAIClient) newRequestBody(messages []Message, tools []ToolDef, stream bool) ([]byte, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    encodeMessages(messages),
		Tools:       encodeTools(tools),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 序列化請求失敗: %v", ErrModelCall, err)
	}
	return body, nil
}

func (c *OpenAIClient) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := c.baseURL + chatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("發送模型請求", "backend", c.name, "model", c.model, "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	return httpResp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%w: HTTP %d: %s", ErrModelCall, resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrModelCall, resp.StatusCode, strings.TrimSpace(string(body)))
}

// --- 線上格式 ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name string `json:"name"`
	// Arguments 是 JSON 編碼的字串，非物件。
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *ToolSchema `json:"parameters,omitempty"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string                `json:"content"`
			ToolCalls []streamToolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type streamToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func encodeMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		cm := chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func encodeTools(tools []ToolDef) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// decodeToolCalls 將線上格式的工具呼叫轉為內部表示。
// 後端未提供 ID 時自動補上，確保請求與結果的配對不會斷裂。
func decodeToolCalls(calls []chatToolCall) ([]ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	out := make([]ToolCall, 0, len(calls))
	for _, tc := range calls {
		var args map[string]any
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: 工具 %s 的參數不是合法 JSON: %v",
					ErrModelCall, tc.Function.Name, err)
			}
		}

		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()[:8]
		}

		out = append(out, ToolCall{ID: id, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

// toolCallAccumulator 組裝串流模式下分片到達的工具呼叫。
// 後端以 index 標記片段屬於哪個呼叫，arguments 逐段串接。
type toolCallAccumulator struct {
	byIndex map[int]*chatToolCall
	order   []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIndex: make(map[int]*chatToolCall)}
}

func (a *toolCallAccumulator) add(delta streamToolCallDelta) {
	tc, ok := a.byIndex[delta.Index]
	if !ok {
		tc = &chatToolCall{Type: "function"}
		a.byIndex[delta.Index] = tc
		a.order = append(a.order, delta.Index)
	}
	if delta.ID != "" {
		tc.ID = delta.ID
	}
	if delta.Function.Name != "" {
		tc.Function.Name = delta.Function.Name
	}
	tc.Function.Arguments += delta.Function.Arguments
}

func (a *toolCallAccumulator) finish() ([]ToolCall, error) {
	if len(a.order) == 0 {
		return nil, nil
	}
	sort.Ints(a.order)

	calls := make([]chatToolCall, 0, len(a.order))
	for _, idx := range a.order {
		calls = append(calls, *a.byIndex[idx])
	}
	return decodeToolCalls(calls)
}
