package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/session"
	"github.com/spf13/cobra"
)

var (
	chatSessionID string
	chatModel     string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "進入互動式對話模式",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "接續指定的會話")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "啟動時使用的模型，略過選單")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(os.Stdin)

	printBanner(out)

	model := chatModel
	if model == "" {
		model, err = selectModel(cfg, scanner, out)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "🔄 正在初始化 %s 模型...\n", strings.ToUpper(model))
	rt, err := newRuntime(cfg, model)
	if err != nil {
		return fmt.Errorf("模型初始化失败: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			rt.logger.Warn("關閉呼叫記錄失敗", "error", closeErr)
		}
	}()
	fmt.Fprintf(out, "✅ %s 模型初始化成功！\n\n", strings.ToUpper(model))

	if err := resumeSession(rt, chatSessionID, out); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ui := &chatUI{rt: rt, out: out}

	fmt.Fprintln(out, "💬 开始对话吧！输入 /help 查看帮助，输入 /exit 退出")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	for {
		fmt.Fprint(out, "\n👤 你: ")
		if !scanner.Scan() {
			// EOF（Ctrl+D）
			fmt.Fprintln(out, "\n👋 再见！")
			break
		}
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\n👋 再见！")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if ui.handleCommand(input) {
				break
			}
			continue
		}

		fmt.Fprint(out, "\n🤖 助手: ")
		_, err := rt.agent.AskStream(ctx, input, func(delta string) {
			fmt.Fprint(out, delta)
		})
		if err != nil {
			fmt.Fprintf(out, "\n❌ 发生错误: %v\n", err)
			fmt.Fprintln(out, "请重试或输入 /help 查看帮助")
			continue
		}
		fmt.Fprintln(out)

		if cur := rt.sessions.Current(); cur != nil {
			if err := session.SaveCurrentSessionID(cfg.HistoryDir, cur.ID); err != nil {
				rt.logger.Warn("寫入會話狀態失敗", "error", err)
			}
		}
	}

	// Scanner 在 EOF 時回傳 nil，這裡只剩真正的讀取錯誤
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("讀取輸入失敗: %w", err)
	}
	return nil
}

func printBanner(out io.Writer) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "🤖 DataChat 智能助手")
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "支持模型: DeepSeek | GLM | Kimi")
	fmt.Fprintln(out, "数据工具: CSV文件分析、统计分析、数据筛选、报告生成")
	fmt.Fprintln(out, "支持功能: 流式对话 | 模型切换 | 会话历史")
	fmt.Fprintln(out, line)
	fmt.Fprintln(out)
}

// selectModel 顯示啟動選單並回傳選定的模型。
// 配置開啟 auto_use_default 時直接使用預設模型。
func selectModel(cfg *config.Config, in *bufio.Scanner, out io.Writer) (string, error) {
	if cfg.App.AutoUseDefault {
		fmt.Fprintf(out, "🚀 自动使用默认模型: %s\n", cfg.DefaultModel)
		return cfg.DefaultModel, nil
	}

	names := cfg.ModelNames()
	status := cfg.CheckAPIKeys()

	fmt.Fprintln(out, "请选择要使用的模型:")
	for i, name := range names {
		mark := "❌"
		if status[name] {
			mark = "✅"
		}
		fmt.Fprintf(out, "%d. %s %s\n", i+1, strings.ToUpper(name), mark)
	}
	fmt.Fprintln(out)

	for {
		fmt.Fprintf(out, "请输入选择 (1-%d): ", len(names))
		if !in.Scan() {
			return "", fmt.Errorf("未選擇模型")
		}
		choice := strings.TrimSpace(in.Text())
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(names) {
			fmt.Fprintf(out, "❌ 请输入 1-%d\n", len(names))
			continue
		}
		name := names[idx-1]
		if !status[name] {
			fmt.Fprintf(out, "❌ %s 的 API Key 未设置，请检查环境变量\n", strings.ToUpper(name))
			continue
		}
		return name, nil
	}
}

// resumeSession 決定啟動時的會話：--session 指定的優先，
// 否則嘗試接續上次的會話。兩者皆無時由第一則訊息觸發建立。
func resumeSession(rt *runtime, requested string, out io.Writer) error {
	if requested != "" {
		_, ok, err := rt.sessions.Load(requested)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("会话不存在: %s", requested)
		}
		fmt.Fprintf(out, "📂 已接续会话 %s\n\n", requested)
		return nil
	}

	last, err := session.LoadCurrentSessionID(rt.cfg.HistoryDir)
	if err != nil || last == "" {
		return nil
	}
	if _, ok, loadErr := rt.sessions.Load(last); loadErr == nil && ok {
		fmt.Fprintf(out, "📂 已接续会话 %s\n\n", last)
	}
	return nil
}

// chatUI 處理互動模式的斜線命令，out 可替換以便測試。
type chatUI struct {
	rt  *runtime
	out io.Writer
}

// handleCommand 處理斜線命令，回傳 true 表示要求退出。
func (u *chatUI) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		u.printHelp()

	case "/switch":
		u.switchModel(parts[1:])

	case "/history":
		u.printHistory(5)

	case "/sessions":
		u.printHistory(0)

	case "/clear":
		u.clearSession()

	case "/exit", "/quit":
		fmt.Fprintln(u.out, "👋 再见！")
		return true

	default:
		fmt.Fprintf(u.out, "❌ 未知命令: %s\n", parts[0])
		fmt.Fprintln(u.out, "输入 /help 查看可用命令")
	}

	return false
}

func (u *chatUI) printHelp() {
	fmt.Fprintln(u.out, "\n📖 可用命令:")
	fmt.Fprintln(u.out, "  /switch <model>  - 切换模型 (deepseek/glm/kimi)")
	fmt.Fprintln(u.out, "  /history        - 查看最近会话")
	fmt.Fprintln(u.out, "  /sessions       - 查看全部会话")
	fmt.Fprintln(u.out, "  /clear          - 清除当前会话历史")
	fmt.Fprintln(u.out, "  /help           - 显示此帮助信息")
	fmt.Fprintln(u.out, "  /exit 或 /quit  - 退出程序")
	fmt.Fprintln(u.out, "\n🔧 支持功能:")
	fmt.Fprintln(u.out, "  • 数据分析: CSV文件分析、统计、筛选、聚合")
	fmt.Fprintln(u.out, "  • 报告生成: PDF / HTML 分析报告")
	fmt.Fprintln(u.out, "  • 流式对话: 实时响应和工具调用")
	fmt.Fprintln(u.out, "  • 会话管理: 保存和恢复对话历史")
	fmt.Fprintln(u.out)
}

func (u *chatUI) switchModel(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(u.out, "❌ 用法: /switch <model>")
		fmt.Fprintf(u.out, "可用模型: %s\n", strings.Join(u.rt.gateway.Available(), ", "))
		return
	}

	name := strings.ToLower(args[0])
	from := u.rt.gateway.CurrentName()
	if _, err := u.rt.gateway.Switch(name); err != nil {
		fmt.Fprintf(u.out, "❌ 切换模型失败: %v\n", err)
		fmt.Fprintf(u.out, "可用模型: %s\n", strings.Join(u.rt.gateway.Available(), ", "))
		return
	}

	sessionID := ""
	if cur := u.rt.sessions.Current(); cur != nil {
		sessionID = cur.ID
	}
	u.rt.recorder.ModelSwitch(sessionID, from, name)
	fmt.Fprintf(u.out, "✅ 已切换到 %s 模型\n", strings.ToUpper(name))
}

// printHistory 列出會話摘要，limit <= 0 表示全部。
func (u *chatUI) printHistory(limit int) {
	summaries, err := u.rt.sessions.List()
	if err != nil {
		fmt.Fprintf(u.out, "❌ 读取会话历史失败: %v\n", err)
		return
	}
	if len(summaries) == 0 {
		fmt.Fprintln(u.out, "📝 暂无会话历史")
		return
	}

	fmt.Fprintln(u.out, "📝 会话历史:")
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	for i, s := range summaries {
		line := fmt.Sprintf("  %d. %s (%d 条消息)", i+1, s.ID, s.MessageCount)
		if s.FirstUserMessage != "" {
			line += " - " + s.FirstUserMessage
		}
		fmt.Fprintln(u.out, line)
	}
}

func (u *chatUI) clearSession() {
	if cur := u.rt.sessions.Current(); cur != nil {
		if _, err := u.rt.sessions.Delete(cur.ID); err != nil {
			fmt.Fprintf(u.out, "❌ 清除会话失败: %v\n", err)
			return
		}
	}
	if err := session.ClearCurrentSessionID(u.rt.cfg.HistoryDir); err != nil {
		u.rt.logger.Warn("清除會話狀態失敗", "error", err)
	}
	u.rt.sessions.Create()
	fmt.Fprintln(u.out, "🗑️ 当前会话历史已清除")
}
