package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/session"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "管理會話歷史",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有會話，最新在前",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return runSessionsList(cmd.OutOrStdout(), store)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "顯示指定會話的完整訊息",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return runSessionsShow(cmd.OutOrStdout(), store, args[0])
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "刪除指定會話",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return runSessionsDelete(cmd.OutOrStdout(), store, args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// openStore 只建立會話存放層，不接線模型後端，
// 離線也能管理會話。
func openStore() (*session.FileStore, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(cfg.HistoryDir, newLogger(cfg))
}

func runSessionsList(out io.Writer, store *session.FileStore) error {
	summaries, err := store.List()
	if err != nil {
		return fmt.Errorf("列出會話失敗: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "📝 暂无会话历史")
		return nil
	}

	fmt.Fprintln(out, "📝 会话历史:")
	for _, s := range summaries {
		line := fmt.Sprintf("  %s  %s  %d 条消息",
			s.ID, formatTime(s.CreatedAt), s.MessageCount)
		if s.FirstUserMessage != "" {
			line += "  " + s.FirstUserMessage
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runSessionsShow(out io.Writer, store *session.FileStore, id string) error {
	sess, err := store.Load(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "会话 ID: %s\n", sess.ID)
	fmt.Fprintf(out, "创建时间: %s\n", formatTime(sess.CreatedAt))
	fmt.Fprintf(out, "消息数: %d\n", len(sess.Messages))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "───────────────────────────────────────")
	fmt.Fprintln(out)

	for _, msg := range sess.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			fmt.Fprintf(out, "⚙️ 系统: %s\n\n", firstLine(msg.Content))
		case llm.RoleUser:
			fmt.Fprintf(out, "👤 你: %s\n\n", msg.Content)
		case llm.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				for _, call := range msg.ToolCalls {
					fmt.Fprintf(out, "🔧 调用工具: %s\n", call.Name)
				}
				if msg.Content != "" {
					fmt.Fprintf(out, "🤖 助手: %s\n", msg.Content)
				}
				fmt.Fprintln(out)
			} else {
				fmt.Fprintf(out, "🤖 助手: %s\n\n", msg.Content)
			}
		case llm.RoleTool:
			fmt.Fprintf(out, "🔧 工具结果: %s\n\n", firstLine(msg.Content))
		default:
			fmt.Fprintf(out, "❓ %s: %s\n\n", msg.Role, firstLine(msg.Content))
		}
	}
	return nil
}

func runSessionsDelete(out io.Writer, store *session.FileStore, id string) error {
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ 已删除会话 %s\n", id)
	return nil
}

// firstLine 截取多行工具輸出的第一行作為摘要。
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " …"
		}
	}
	return s
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
