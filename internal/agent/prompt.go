package agent

import (
	"fmt"
	"strings"

	"github.com/Noah-wb/datachat/internal/llm"
)

// systemPrompt 組合資料分析助理的系統提示詞，工具目錄取自 registry，
// 保證提示詞與實際註冊的工具一致。
func systemPrompt(tools []llm.ToolDef) string {
	var b strings.Builder
	b.WriteString(`你是一个专业的数据分析助手，帮助用户分析data文件夹中的CSV数据文件。

你可以使用以下工具：
`)
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	b.WriteString(`
工作要求：
1. 用户询问数据相关问题时，优先调用工具获取真实数据，不要凭空编造。
2. 回答前先确认文件和列名存在，列名不确定时先用 load_csv_file 或 get_column_info 查看。
3. 工具返回错误信息时，向用户解释原因并给出可行的下一步。
4. 分析结果要给出简明的业务解读，而不只是罗列数字。
5. 始终用中文回复。`)
	return b.String()
}
