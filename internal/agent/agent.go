// Package agent 實作 REASON/ACT/DONE 控制迴圈：模型決定呼叫哪些工具，
// agent 依序執行並把結果回饋給模型，直到產生最終回答。
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Noah-wb/datachat/internal/calllog"
	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/log"
	"github.com/Noah-wb/datachat/internal/session"
	"github.com/Noah-wb/datachat/internal/tools"
)

// ClientProvider 提供目前使用中的模型 client。Gateway 實作這個介面，
// 讓 /switch 之後的 turn 自動用上新模型。
type ClientProvider interface {
	Current() llm.Client
}

// StreamHandler 收到最終使用者可見內容的增量片段。
// 空字串片段也會送達（重複快照產生空增量）。
type StreamHandler func(delta string)

// Agent 將模型閘道、工具註冊表與 session 管理串成一個對話代理。
type Agent struct {
	provider  ClientProvider
	registry  *tools.Registry
	sessions  *session.Manager
	recorder  *calllog.Recorder
	logger    log.Logger
	maxRounds int
}

// Config Agent 的組裝參數。
type Config struct {
	Provider ClientProvider
	Registry *tools.Registry
	Sessions *session.Manager
	// Recorder 可為 nil，呼叫記錄是選配。
	Recorder *calllog.Recorder
	Logger   log.Logger
	// MaxToolRounds 單一 turn 允許的 ACT 輪數上限，<=0 用預設值。
	MaxToolRounds int
}

// New 組裝 Agent。
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("agent: session manager is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = config.DefaultMaxToolRounds
	}

	return &Agent{
		provider:  cfg.Provider,
		registry:  cfg.Registry,
		sessions:  cfg.Sessions,
		recorder:  cfg.Recorder,
		logger:    logger,
		maxRounds: maxRounds,
	}, nil
}

// Ask 執行一個非串流 turn，回傳最終回答。
//
// Turn 是交易式的：使用者訊息與最終回答只有在 turn 成功後才會寫進
// session 並持久化；模型呼叫失敗時 session 不留任何痕跡。
func (a *Agent) Ask(ctx context.Context, input string) (string, error) {
	return a.run(ctx, input, nil)
}

// AskStream 與 Ask 相同，但最終內容以增量片段送到 onDelta。
func (a *Agent) AskStream(ctx context.Context, input string, onDelta StreamHandler) (string, error) {
	return a.run(ctx, input, onDelta)
}

func (a *Agent) run(ctx context.Context, input string, onDelta StreamHandler) (string, error) {
	sess := a.sessions.Current()
	if sess == nil {
		sess = a.sessions.Create()
	}

	client := a.provider.Current()
	if client == nil {
		return "", errors.New("agent: no model client available")
	}

	toolDefs := a.registry.Describe()
	userMsg := llm.UserMessage(input)

	// 種子：系統提示 + 既有歷史 + 本輪輸入
	working := make([]llm.Message, 0, len(sess.Messages)+2)
	working = append(working, llm.SystemMessage(systemPrompt(toolDefs)))
	for _, m := range sess.Messages {
		if m.Role != llm.RoleSystem {
			working = append(working, m)
		}
	}
	working = append(working, userMsg)

	var answer string
	rounds := 0
	for {
		resp, err := a.callModel(ctx, client, sess.ID, working, toolDefs, onDelta)
		if err != nil {
			return "", err
		}

		if !resp.HasToolCalls() {
			answer = resp.Content
			break
		}

		if rounds >= a.maxRounds {
			answer = fmt.Sprintf(
				"已达到单轮工具调用上限（%d 轮），无法继续执行工具。目前掌握的信息不足以完整回答，请把问题拆小后再试。",
				a.maxRounds)
			a.logger.Warn("tool round limit reached", "session_id", sess.ID, "rounds", rounds)
			if onDelta != nil {
				onDelta(answer)
			}
			break
		}
		rounds++

		working = append(working, llm.AssistantToolCallMessage(resp.Content, resp.ToolCalls))
		// 依請求順序逐一執行，結果帶上對應的請求 ID
		for _, call := range resp.ToolCalls {
			working = append(working, llm.ToolResultMessage(call.ID, a.execTool(ctx, sess.ID, call)))
		}

		// ACT 之後把工作清單截回最近一則使用者訊息，不再重送系統提示
		working = truncateToLastUser(working)
	}

	sess.Append(userMsg, llm.AssistantMessage(answer))
	if err := a.sessions.Persist(); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return answer, nil
}

func (a *Agent) callModel(ctx context.Context, client llm.Client, sessionID string, msgs []llm.Message, toolDefs []llm.ToolDef, onDelta StreamHandler) (*llm.Response, error) {
	a.recorder.ModelCallStart(sessionID, client.Name(), client.Model(), len(msgs))
	start := time.Now()

	var resp *llm.Response
	var err error
	if onDelta != nil {
		dedup := &streamDeduper{}
		resp, err = client.Stream(ctx, msgs, toolDefs, func(_ context.Context, cumulative string) error {
			onDelta(dedup.delta(cumulative))
			return nil
		})
	} else {
		resp, err = client.Call(ctx, msgs, toolDefs)
	}

	if err != nil {
		a.recorder.ModelCallError(sessionID, client.Name(), client.Model(), err)
		return nil, fmt.Errorf("%w: %v", llm.ErrModelCall, err)
	}
	a.recorder.ModelCallComplete(sessionID, client.Name(), client.Model(),
		len(resp.Content), len(resp.ToolCalls), time.Since(start))
	return resp, nil
}

// execTool 執行單一工具呼叫。工具層的失敗轉為描述文字回饋給模型，
// 讓模型能解釋並調整，而不是讓整個 turn 失敗。
func (a *Agent) execTool(ctx context.Context, sessionID string, call llm.ToolCall) string {
	a.recorder.ToolStart(sessionID, call.Name, call.ID, call.Arguments)
	start := time.Now()

	result, err := a.registry.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		a.recorder.ToolError(sessionID, call.Name, call.ID, err)
		a.logger.Warn("tool invocation failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("❌ 工具调用失败: %v", err)
	}

	a.recorder.ToolResult(sessionID, call.Name, call.ID, len(result), time.Since(start))
	return result
}

// truncateToLastUser 保留最近一則使用者訊息之後的內容。
func truncateToLastUser(msgs []llm.Message) []llm.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i:]
		}
	}
	return msgs
}

// ModelAnalyzer 讓 professional_data_analysis 之類的工具透過目前的
// 模型 client 產生分析文字。
type ModelAnalyzer struct {
	Provider ClientProvider
}

// Analyze 以單則 user 訊息呼叫目前模型。
func (m *ModelAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	client := m.Provider.Current()
	if client == nil {
		return "", errors.New("no model client available")
	}
	resp, err := client.Call(ctx, []llm.Message{llm.UserMessage(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
