// Package llm 提供模型閘道：以單一介面抽象多個 OpenAI 相容的
// LLM 後端（DeepSeek / GLM / Kimi），支援工具綁定與串流輸出。
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrModelCall 表示模型後端呼叫失敗（逾時、非 2xx、回應格式錯誤）。
// 此套件不做自動重試，由呼叫方決定是否重試整輪對話。
var ErrModelCall = errors.New("model call failed")

// Role 訊息角色，封閉集合。
// 新增角色時，所有對 Role 的 switch 都必須同步處理。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid 回報角色是否屬於已知集合。
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall 模型發出的單次工具呼叫請求。
type ToolCall struct {
	// ID 將工具結果訊息連結回請求的識別碼。
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message 一則對話訊息。一旦加入會話即不可變，順序有意義。
// 持久化格式與執行期格式相同，可無損往返。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls 僅出現在請求工具的 assistant 訊息上。
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID 僅出現在 tool 訊息上，對應原請求的 ID。
	ToolCallID string `json:"tool_call_id,omitempty"`

	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// now 統一訊息時間戳的精度，持久化格式只保留到秒。
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// SystemMessage 建立系統訊息。
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: now()}
}

// UserMessage 建立使用者訊息。
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: now()}
}

// AssistantMessage 建立純文字的助理訊息。
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: now()}
}

// AssistantToolCallMessage 建立攜帶工具請求的助理訊息。
func AssistantToolCallMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, Timestamp: now()}
}

// ToolResultMessage 建立工具結果訊息，callID 對應原請求。
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Timestamp: now()}
}

// ToolProperty 工具參數的 JSON Schema 描述（子集）。
type ToolProperty struct {
	// Type 留空表示不限型別。
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolSchema 工具參數整體的 JSON Schema（object 型）。
type ToolSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

// ToolDef 綁定到模型呼叫的工具描述。
type ToolDef struct {
	Name        string
	Description string
	Parameters  *ToolSchema
}

// Response 模型的單次回應：最終文字，或一組依序的工具請求。
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls 回報模型是否請求執行工具。
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// StreamFunc 串流回呼。content 是到目前為止累積的完整內容快照，
// 而非增量片段——底層串流可能重送累積字串，由呼叫方自行去重
// （見 agent 套件的 delta 計算）。回傳錯誤會中止串流。
type StreamFunc func(ctx context.Context, content string) error

// Client 單一 LLM 後端的抽象。
// Call 與 Stream 在語義上等價：串流片段串接後必須與
// 非串流呼叫產生的最終內容一致。
type Client interface {
	// Name 配置中的後端識別名（deepseek / glm / kimi）。
	Name() string
	// Model 送往後端的模型字串。
	Model() string

	Call(ctx context.Context, messages []Message, tools []ToolDef) (*Response, error)
	Stream(ctx context.Context, messages []Message, tools []ToolDef, fn StreamFunc) (*Response, error)
}
