package tools

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePDFReport(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)
	outputDir := t.TempDir()

	out := invoke(t, reg, "generate_pdf_report", map[string]any{
		"filename":     "sales.csv",
		"output_dir":   outputDir,
		"report_title": "销售分析",
	})
	require.True(t, strings.HasSuffix(out, ".pdf"), "expected a PDF path, got %q", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	// 圖表也一起落在輸出目錄
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	var pngs int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			pngs++
		}
	}
	assert.Greater(t, pngs, 0)
}

func TestGenerateHTMLReport(t *testing.T) {
	analyzer := &fakeAnalyzer{content: "整体表现稳定。"}
	reg, _ := newDataRegistry(t, analyzer)
	outputDir := t.TempDir()

	out := invoke(t, reg, "generate_html_report", map[string]any{
		"filename":   "sales.csv",
		"output_dir": outputDir,
	})
	require.True(t, strings.HasSuffix(out, ".html"), "expected an HTML path, got %q", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "数据分析报告")
	assert.Contains(t, html, "整体表现稳定。")
	assert.Contains(t, html, "<img")
}

func TestGenerateReportMissingFile(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "generate_pdf_report", map[string]any{"filename": "nope.csv"})
	assert.Contains(t, out, "❌ 生成PDF报告失败")
}
