package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/Noah-wb/datachat/internal/report"
)

const defaultReportTitle = "数据分析报告"

// --- 14. generate_pdf_report ---

func (d *dataTools) generatePDFReport(ctx context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 生成PDF报告失败: %v", err), nil
	}

	outputDir, title := d.reportTarget(args)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Sprintf("❌ 生成PDF报告失败: %v", err), nil
	}

	analysis := d.analysisText(ctx, df, "comprehensive")
	charts := d.generateCharts(df, outputDir)

	pdfPath := filepath.Join(outputDir,
		fmt.Sprintf("analysis_report_%s.pdf", time.Now().Format("20060102_150405")))

	meta := report.Meta{
		Title:     title,
		Filename:  filename,
		Rows:      df.Nrow(),
		Generated: time.Now(),
	}
	if err := report.WritePDF(pdfPath, meta, analysis, charts, d.fontPath); err != nil {
		return fmt.Sprintf("❌ 生成PDF报告失败: %v", err), nil
	}

	d.logger.Info("PDF报告已生成", "path", pdfPath)
	return pdfPath, nil
}

// --- 15. generate_html_report ---

func (d *dataTools) generateHTMLReport(ctx context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 生成HTML报告失败: %v", err), nil
	}

	outputDir, title := d.reportTarget(args)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Sprintf("❌ 生成HTML报告失败: %v", err), nil
	}

	analysis := d.analysisText(ctx, df, "comprehensive")
	charts := d.generateCharts(df, outputDir)

	meta := report.Meta{
		Title:     title,
		Filename:  filename,
		Rows:      df.Nrow(),
		Generated: time.Now(),
	}
	markdown := report.BuildMarkdown(meta, analysis, charts)
	html, err := report.RenderHTML(title, markdown)
	if err != nil {
		return fmt.Sprintf("❌ 生成HTML报告失败: %v", err), nil
	}

	htmlPath := filepath.Join(outputDir,
		fmt.Sprintf("analysis_report_%s.html", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return fmt.Sprintf("❌ 生成HTML报告失败: %v", err), nil
	}

	d.logger.Info("HTML报告已生成", "path", htmlPath)
	return htmlPath, nil
}

func (d *dataTools) reportTarget(args map[string]any) (outputDir, title string) {
	outputDir = argString(args, "output_dir")
	if outputDir == "" {
		outputDir = d.outputDir
	}
	title = argString(args, "report_title")
	if title == "" {
		title = defaultReportTitle
	}
	return outputDir, title
}

// generateCharts 依資料形狀盡量產生圖表，單張失敗只記錄不中斷。
// 產出：第一個分類列的分布圓餅圖、分類加總長條圖、第一個數值列的趨勢折線圖。
func (d *dataTools) generateCharts(df dataframe.DataFrame, outputDir string) []string {
	var charts []string

	var categoryCol, numericCol string
	for _, name := range df.Names() {
		if isNumericColumn(df, name) {
			if numericCol == "" {
				numericCol = name
			}
		} else if categoryCol == "" {
			categoryCol = name
		}
	}

	if categoryCol != "" && numericCol != "" {
		groups := groupAggregate(df, categoryCol, numericCol, "sum")

		top := groups
		if len(top) > 10 {
			top = top[:10]
		}
		values := make([]report.Value, 0, len(top))
		for _, g := range top {
			values = append(values, report.Value{Label: g.key, Value: g.value})
		}

		barPath := filepath.Join(outputDir, "top_groups_bar.png")
		if err := report.WriteBarChart(barPath, fmt.Sprintf("%s by %s", numericCol, categoryCol), values); err != nil {
			d.logger.Warn("生成长条图失败", "error", err)
		} else {
			charts = append(charts, barPath)
		}

		piePath := filepath.Join(outputDir, "category_pie.png")
		if err := report.WritePieChart(piePath, categoryCol, values); err != nil {
			d.logger.Warn("生成饼图失败", "error", err)
		} else {
			charts = append(charts, piePath)
		}
	}

	if numericCol != "" {
		if vals := columnFloats(df, numericCol); len(vals) >= 2 {
			xs := make([]float64, len(vals))
			for i := range xs {
				xs[i] = float64(i + 1)
			}
			linePath := filepath.Join(outputDir, "trend_line.png")
			if err := report.WriteLineChart(linePath, numericCol, xs, vals); err != nil {
				d.logger.Warn("生成趋势图失败", "error", err)
			} else {
				charts = append(charts, linePath)
			}
		}
	}

	return charts
}
