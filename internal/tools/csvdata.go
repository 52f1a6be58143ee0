package tools

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// readFrame 在沙箱內讀取 CSV 檔並解析為 DataFrame。
func readFrame(sandbox *Sandbox, filename string) (dataframe.DataFrame, error) {
	path, err := sandbox.Resolve(filename)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dataframe.DataFrame{}, fmt.Errorf("文件不存在: %s", filename)
		}
		return dataframe.DataFrame{}, fmt.Errorf("读取CSV文件失败: %v", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取CSV文件失败: %v", df.Err)
	}
	return df, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, col := range df.Names() {
		if col == name {
			return true
		}
	}
	return false
}

func columnList(df dataframe.DataFrame) string {
	return strings.Join(df.Names(), ", ")
}

func isNumericColumn(df dataframe.DataFrame, name string) bool {
	t := df.Col(name).Type()
	return t == series.Int || t == series.Float
}

// columnFloats 回傳去除缺失值後的數值資料。
func columnFloats(df dataframe.DataFrame, name string) []float64 {
	raw := df.Col(name).Float()
	clean := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}

// formatTable 將含表頭的 records 排版成等寬文字表格。
// limit 限制資料列數（不含表頭），0 表示不限制。
func formatTable(records [][]string, limit int) string {
	if len(records) == 0 {
		return ""
	}
	if limit > 0 && len(records) > limit+1 {
		records = records[:limit+1]
	}

	widths := make([]int, len(records[0]))
	for _, row := range records {
		for i, cell := range row {
			if i < len(widths) {
				if w := utf8.RuneCountInString(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder
	for r, row := range records {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			pad := widths[i] - utf8.RuneCountInString(cell)
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		}
		if r < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// formatNumber 以千分位與兩位小數格式化，對應報表慣用的 1,234.56 樣式。
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// argString 取出字串參數，缺少時回傳空字串。
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt 取出整數參數，不存在或型別不符時回傳 fallback。
func argInt(args map[string]any, key string, fallback int) int {
	if f, ok := asFloat(args[key]); ok {
		return int(f)
	}
	return fallback
}

// argBool 取出布林參數，不存在時回傳 fallback。
func argBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
