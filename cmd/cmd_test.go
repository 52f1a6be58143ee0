package cmd

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DefaultModel: "deepseek",
		Models: map[string]config.ModelConfig{
			"deepseek": {Name: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1", APIKeyEnv: "DEEPSEEK_API_KEY"},
			"glm":      {Name: "glm-4-plus", BaseURL: "https://open.bigmodel.cn/api/paas/v4", APIKeyEnv: "GLM_API_KEY"},
			"kimi":     {Name: "moonshot-v1-8k", BaseURL: "https://api.moonshot.cn/v1", APIKeyEnv: "KIMI_API_KEY"},
		},
		DataDir:    t.TempDir(),
		OutputDir:  t.TempDir(),
		HistoryDir: t.TempDir(),
		Log:        config.LogConfig{Level: "error", Dir: t.TempDir()},
	}
}

func newTestRuntime(t *testing.T) *runtime {
	t.Helper()
	t.Setenv("DEEPSEEK_API_KEY", "test-key")
	t.Setenv("GLM_API_KEY", "test-key")
	t.Setenv("KIMI_API_KEY", "test-key")

	rt, err := newRuntime(testConfig(t), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestSelectModelAutoDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.AutoUseDefault = true

	var out bytes.Buffer
	name, err := selectModel(cfg, bufio.NewScanner(strings.NewReader("")), &out)

	require.NoError(t, err)
	assert.Equal(t, "deepseek", name)
	assert.Contains(t, out.String(), "自动使用默认模型")
}

func TestSelectModelMenuRetriesInvalidChoice(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "test-key")
	t.Setenv("GLM_API_KEY", "test-key")
	t.Setenv("KIMI_API_KEY", "test-key")
	cfg := testConfig(t)

	var out bytes.Buffer
	in := bufio.NewScanner(strings.NewReader("9\n1\n"))
	name, err := selectModel(cfg, in, &out)

	require.NoError(t, err)
	// ModelNames 按字母排序，1 對應 deepseek
	assert.Equal(t, "deepseek", name)
	assert.Contains(t, out.String(), "❌ 请输入 1-3")
}

func TestSelectModelRejectsMissingKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "test-key")
	t.Setenv("GLM_API_KEY", "")
	t.Setenv("KIMI_API_KEY", "")
	cfg := testConfig(t)

	var out bytes.Buffer
	in := bufio.NewScanner(strings.NewReader("2\n1\n"))
	name, err := selectModel(cfg, in, &out)

	require.NoError(t, err)
	assert.Equal(t, "deepseek", name)
	assert.Contains(t, out.String(), "API Key 未设置")
}

func TestSelectModelEOF(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	_, err := selectModel(cfg, bufio.NewScanner(strings.NewReader("")), &out)
	assert.Error(t, err)
}

func TestNewRuntimeUnknownModelOverride(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "test-key")

	_, err := newRuntime(testConfig(t), "claude")
	assert.ErrorIs(t, err, config.ErrUnknownModel)
}

func TestHandleCommandExit(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.True(t, ui.handleCommand("/exit"))
	assert.Contains(t, out.String(), "再见")

	out.Reset()
	assert.True(t, ui.handleCommand("/quit"))
}

func TestHandleCommandUnknown(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/bogus"))
	assert.Contains(t, out.String(), "未知命令: /bogus")
}

func TestHandleCommandHelp(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/help"))
	assert.Contains(t, out.String(), "/switch <model>")
	assert.Contains(t, out.String(), "/exit")
}

func TestHandleSwitchModel(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/switch kimi"))
	assert.Contains(t, out.String(), "✅ 已切换到 KIMI 模型")
	assert.Equal(t, "kimi", rt.gateway.CurrentName())
}

func TestHandleSwitchUnknownModelKeepsCurrent(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/switch claude"))
	assert.Contains(t, out.String(), "❌ 切换模型失败")
	assert.Equal(t, "deepseek", rt.gateway.CurrentName())
}

func TestHandleSwitchWithoutArgument(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/switch"))
	assert.Contains(t, out.String(), "用法: /switch <model>")
}

func TestHandleHistoryEmpty(t *testing.T) {
	rt := newTestRuntime(t)
	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/history"))
	assert.Contains(t, out.String(), "暂无会话历史")
}

func TestHandleHistoryListsSessions(t *testing.T) {
	rt := newTestRuntime(t)

	sess := rt.sessions.Create()
	sess.Append(llm.UserMessage("分析销售数据"), llm.AssistantMessage("好的"))
	require.NoError(t, rt.sessions.Persist())

	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/history"))
	assert.Contains(t, out.String(), sess.ID)
	assert.Contains(t, out.String(), "2 条消息")
	assert.Contains(t, out.String(), "分析销售数据")
}

func TestHandleClearRemovesPersistedSession(t *testing.T) {
	rt := newTestRuntime(t)

	sess := rt.sessions.Create()
	sess.Append(llm.UserMessage("hello"))
	require.NoError(t, rt.sessions.Persist())
	require.NoError(t, session.SaveCurrentSessionID(rt.cfg.HistoryDir, sess.ID))

	var out bytes.Buffer
	ui := &chatUI{rt: rt, out: &out}

	assert.False(t, ui.handleCommand("/clear"))
	assert.Contains(t, out.String(), "当前会话历史已清除")
	assert.False(t, rt.store.Exists(sess.ID))

	// 狀態檔同步清空，下次啟動不會接續已刪除的會話
	id, err := session.LoadCurrentSessionID(rt.cfg.HistoryDir)
	require.NoError(t, err)
	assert.Empty(t, id)

	// 清除後立即有可用的新會話
	require.NotNil(t, rt.sessions.Current())
	assert.Empty(t, rt.sessions.Current().Messages)
}

func TestResumeSessionByFlag(t *testing.T) {
	rt := newTestRuntime(t)

	sess := rt.sessions.Create()
	sess.Append(llm.UserMessage("hi"))
	require.NoError(t, rt.sessions.Persist())
	rt.sessions.Create() // 切走 current，驗證 resume 會載回來

	require.NoError(t, resumeSession(rt, sess.ID, io.Discard))
	require.NotNil(t, rt.sessions.Current())
	assert.Equal(t, sess.ID, rt.sessions.Current().ID)
}

func TestResumeSessionMissingFlagID(t *testing.T) {
	rt := newTestRuntime(t)

	err := resumeSession(rt, "20990101_000000", io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "会话不存在")
}

func TestResumeSessionFromStateFile(t *testing.T) {
	rt := newTestRuntime(t)

	sess := rt.sessions.Create()
	require.NoError(t, rt.sessions.Persist())
	require.NoError(t, session.SaveCurrentSessionID(rt.cfg.HistoryDir, sess.ID))
	rt.sessions.Create() // 切走 current，模擬重新啟動

	require.NoError(t, resumeSession(rt, "", io.Discard))
	require.NotNil(t, rt.sessions.Current())
	assert.Equal(t, sess.ID, rt.sessions.Current().ID)
}

func TestSessionsShowRendersEveryRole(t *testing.T) {
	rt := newTestRuntime(t)

	sess := rt.sessions.Create()
	unknown := llm.Message{Role: llm.Role("observer"), Content: "旁观者消息"}
	sess.Append(
		llm.SystemMessage("你是一个专业的数据分析助手"),
		llm.UserMessage("列出可用文件"),
		llm.AssistantMessage("目前有 sales.csv。"),
		llm.ToolResultMessage("call_1", "📁 可用的CSV文件:\nsales.csv"),
		unknown,
	)
	require.NoError(t, rt.sessions.Persist())

	var out bytes.Buffer
	require.NoError(t, runSessionsShow(&out, rt.store, sess.ID))

	// 每種角色都要出現在輸出裡，未知角色也不能被悄悄略過
	assert.Contains(t, out.String(), "⚙️ 系统: 你是一个专业的数据分析助手")
	assert.Contains(t, out.String(), "👤 你: 列出可用文件")
	assert.Contains(t, out.String(), "🤖 助手: 目前有 sales.csv。")
	assert.Contains(t, out.String(), "🔧 工具结果: 📁 可用的CSV文件: …")
	assert.Contains(t, out.String(), "❓ observer: 旁观者消息")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "📊 文件: a.csv …", firstLine("📊 文件: a.csv\n📏 数据维度: 3 行"))
	assert.Equal(t, "单行", firstLine("单行"))
}
