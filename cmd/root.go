package cmd

import (
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "DataChat - 終端資料分析對話助手",
	Long: `DataChat 是一個終端資料分析對話助手。
它透過 LLM 工具呼叫分析 CSV 資料：統計、篩選、聚合、相關性，
並可產生帶圖表的 PDF / HTML 分析報告。

直接執行 datachat 將進入互動式對話模式。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 無參數時進入 chat 模式
		return runChat(cmd, args)
	},
}

// Execute 執行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "配置檔路徑（預設搜尋 ./config、目前目錄與 ~/.datachat）")
}
