package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
)

const cjkFontFamily = "cjk"

// WritePDF 輸出帶標題、資訊區塊、分析內文與圖表的 A4 報告。
//
// fontPath 指向 TTF 字型檔，用來顯示中文內容；留空時退回內建
// Helvetica，CJK 字元會無法顯示，但報告結構仍完整。
func WritePDF(path string, meta Meta, analysis string, chartFiles []string, fontPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	family := "Helvetica"
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			return fmt.Errorf("report font not found: %w", err)
		}
		pdf.AddUTF8Font(cjkFontFamily, "", fontPath)
		family = cjkFontFamily
	}

	pdf.AddPage()

	// 標題
	pdf.SetFont(family, "", 18)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(0, 12, meta.Title, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// 資訊區塊
	writeHeading(pdf, family, "数据文件信息")
	pdf.SetFont(family, "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 6, fmt.Sprintf("文件名: %s", meta.Filename), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("分析时间: %s", meta.Generated.Format("2006-01-02 15:04:05")), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("数据行数: %d", meta.Rows), "", "L", false)
	pdf.Ln(4)

	// 分析內容，分隔線不印
	writeHeading(pdf, family, "分析结果")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range strings.Split(analysis, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "=") || strings.HasPrefix(trimmed, "---") {
			continue
		}
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(4)

	// 圖表
	if len(chartFiles) > 0 {
		writeHeading(pdf, family, "可视化图表")
		for _, chartFile := range chartFiles {
			if _, err := os.Stat(chartFile); err != nil {
				continue
			}
			pdf.SetFont(family, "", 11)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(0, 6, chartTitle(chartFile), "", "L", false)
			pdf.ImageOptions(chartFile, 15, pdf.GetY(), 180, 0, true,
				fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
			pdf.Ln(6)
		}
	}

	// 總結
	writeHeading(pdf, family, "总结")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 5, reportFooter, "", "L", false)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func writeHeading(pdf *fpdf.Fpdf, family, text string) {
	pdf.SetFont(family, "", 14)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}
