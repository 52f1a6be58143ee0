package report

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Meta 報告的基本資訊區塊。
type Meta struct {
	Title     string
	Filename  string
	Rows      int
	Generated time.Time
}

const reportFooter = "本报告基于提供的数据文件进行了全面的分析，包括数据概览、趋势分析和可视化展示。如需更详细的分析或有其他问题，请随时联系。"

// BuildMarkdown 組合 Markdown 格式的分析報告。圖表以相對路徑引用，
// 報告與圖檔放在同一個輸出目錄。
func BuildMarkdown(meta Meta, analysis string, chartFiles []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	b.WriteString("## 数据文件信息\n\n")
	fmt.Fprintf(&b, "- **文件名**: %s\n", meta.Filename)
	fmt.Fprintf(&b, "- **分析时间**: %s\n", meta.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **数据行数**: %d\n\n", meta.Rows)

	b.WriteString("## 分析结果\n\n")
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(analysis, "\n"))
	b.WriteString("\n```\n\n")

	b.WriteString("## 可视化图表\n\n")
	if len(chartFiles) == 0 {
		b.WriteString("暂无图表生成。\n\n")
	} else {
		for _, chartFile := range chartFiles {
			name := filepath.Base(chartFile)
			fmt.Fprintf(&b, "### %s\n\n", chartTitle(name))
			fmt.Fprintf(&b, "![%s](%s)\n\n", name, name)
		}
	}

	b.WriteString("## 总结\n\n")
	b.WriteString(reportFooter + "\n\n")
	b.WriteString("---\n*报告由数据分析系统自动生成*\n")
	return b.String()
}

func chartTitle(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ReplaceAll(name, "_", " ")
}

var htmlConverter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

// RenderHTML 將 Markdown 報告轉成帶樣式的獨立 HTML 文件。
func RenderHTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := htmlConverter.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>\n" + reportCSS + "</style>\n</head>\n<body>\n<div class=\"container\">\n")
	b.Write(body.Bytes())
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String(), nil
}

// 樣式沿用報告系統一貫的藍白配色。
const reportCSS = `body {
  font-family: 'Microsoft YaHei', 'SimHei', Arial, sans-serif;
  line-height: 1.6;
  margin: 0;
  padding: 20px;
  background-color: #f5f5f5;
}
.container {
  max-width: 1200px;
  margin: 0 auto;
  background: white;
  padding: 30px;
  border-radius: 10px;
  box-shadow: 0 0 20px rgba(0,0,0,0.1);
}
h1 {
  color: #2c3e50;
  text-align: center;
  border-bottom: 3px solid #3498db;
  padding-bottom: 10px;
  margin-bottom: 30px;
}
h2 {
  color: #34495e;
  border-left: 4px solid #3498db;
  padding-left: 15px;
  margin-top: 30px;
}
pre {
  white-space: pre-wrap;
  background: #f8f9fa;
  padding: 20px;
  border-radius: 5px;
  border-left: 4px solid #28a745;
}
img {
  max-width: 100%;
  height: auto;
  border-radius: 5px;
  border: 1px solid #ddd;
}
hr {
  border: none;
  border-top: 1px solid #ecf0f1;
  margin-top: 40px;
}
`
