// Package calllog 將模型與工具的呼叫事件寫成 JSONL 檔，供事後除錯與審計。
// Recorder 以依賴注入的方式傳遞，nil Recorder 上的所有方法都是安全的空操作。
package calllog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event JSONL 中的一筆記錄。
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      string         `json:"kind"`
	SessionID string         `json:"session_id,omitempty"`
	Backend   string         `json:"backend,omitempty"`
	Model     string         `json:"model,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// 事件類型。
const (
	KindModelCallStart    = "model_call_start"
	KindModelCallComplete = "model_call_complete"
	KindModelCallError    = "model_call_error"
	KindModelSwitch       = "model_switch"
	KindToolStart         = "tool_start"
	KindToolResult        = "tool_result"
	KindToolError         = "tool_error"
)

// Recorder 以附加模式寫入單一 JSONL 檔。並行安全。
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// New 在 dir 下建立以日期命名的記錄檔（calls_20060102.jsonl）。
func New(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("建立記錄目錄失敗: %w", err)
	}

	name := fmt.Sprintf("calls_%s.jsonl", time.Now().Format("20060102"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("開啟記錄檔失敗: %w", err)
	}

	return &Recorder{file: f, enc: json.NewEncoder(f)}, nil
}

// Close 關閉底層檔案。
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

func (r *Recorder) write(ev Event) {
	if r == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	// 記錄失敗不影響主流程
	_ = r.enc.Encode(ev)
}

// ModelCallStart 記錄一次模型請求的開始。
func (r *Recorder) ModelCallStart(sessionID, backend, model string, messageCount int) {
	r.write(Event{
		Kind:      KindModelCallStart,
		SessionID: sessionID,
		Backend:   backend,
		Model:     model,
		Detail:    map[string]any{"messages": messageCount},
	})
}

// ModelCallComplete 記錄模型請求成功結束。
func (r *Recorder) ModelCallComplete(sessionID, backend, model string, contentLen, toolCalls int, elapsed time.Duration) {
	r.write(Event{
		Kind:      KindModelCallComplete,
		SessionID: sessionID,
		Backend:   backend,
		Model:     model,
		Detail: map[string]any{
			"content_len": contentLen,
			"tool_calls":  toolCalls,
			"elapsed_ms":  elapsed.Milliseconds(),
		},
	})
}

// ModelCallError 記錄模型請求失敗。
func (r *Recorder) ModelCallError(sessionID, backend, model string, err error) {
	ev := Event{
		Kind:      KindModelCallError,
		SessionID: sessionID,
		Backend:   backend,
		Model:     model,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.write(ev)
}

// ModelSwitch 記錄模型切換。
func (r *Recorder) ModelSwitch(sessionID, from, to string) {
	r.write(Event{
		Kind:      KindModelSwitch,
		SessionID: sessionID,
		Detail:    map[string]any{"from": from, "to": to},
	})
}

// ToolStart 記錄工具開始執行。
func (r *Recorder) ToolStart(sessionID, tool, callID string, args map[string]any) {
	r.write(Event{
		Kind:      KindToolStart,
		SessionID: sessionID,
		Tool:      tool,
		CallID:    callID,
		Detail:    map[string]any{"arguments": args},
	})
}

// ToolResult 記錄工具執行成功。
func (r *Recorder) ToolResult(sessionID, tool, callID string, resultLen int, elapsed time.Duration) {
	r.write(Event{
		Kind:      KindToolResult,
		SessionID: sessionID,
		Tool:      tool,
		CallID:    callID,
		Detail: map[string]any{
			"result_len": resultLen,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

// ToolError 記錄工具執行失敗。
func (r *Recorder) ToolError(sessionID, tool, callID string, err error) {
	ev := Event{
		Kind:      KindToolError,
		SessionID: sessionID,
		Tool:      tool,
		CallID:    callID,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.write(ev)
}
