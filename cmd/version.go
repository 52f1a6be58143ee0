package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/spf13/cobra"
)

// 版本資訊由建置系統透過 ldflags 注入
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示版本與配置資訊",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "DataChat %s\n", AppVersion)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
	fmt.Fprintln(out)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "配置:")
	fmt.Fprintf(out, "  默认模型: %s\n", cfg.DefaultModel)
	fmt.Fprintf(out, "  数据目录: %s\n", cfg.DataDir)
	fmt.Fprintf(out, "  报告目录: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  会话目录: %s\n", cfg.HistoryDir)
	fmt.Fprintln(out)

	// 金鑰只顯示是否設定，不顯示內容
	fmt.Fprintln(out, "API Keys:")
	status := cfg.CheckAPIKeys()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := "❌ 未设置"
		if status[name] {
			mark = "✅ 已设置"
		}
		fmt.Fprintf(out, "  %s: %s\n", strings.ToUpper(name), mark)
	}
	return nil
}
