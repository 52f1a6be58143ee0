package tools

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Noah-wb/datachat/internal/log"
)

// Analyzer 產生專業分析文字，通常由模型閘道提供。
// professional_data_analysis 在 Analyzer 缺席或失敗時退回基礎分析。
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// dataTools 綁定沙箱、記錄器與報告設定的分析工具集。
type dataTools struct {
	sandbox   *Sandbox
	logger    log.Logger
	analyzer  Analyzer
	outputDir string
	fontPath  string
}

// --- 1. list_csv_files ---

func (d *dataTools) listCSVFiles(_ context.Context, _ map[string]any) (string, error) {
	names, err := d.sandbox.ListCSV()
	if err != nil {
		return fmt.Sprintf("❌ 列出CSV文件失败: %v", err), nil
	}
	if len(names) == 0 {
		return "data文件夹中没有CSV文件", nil
	}

	var b strings.Builder
	b.WriteString("📁 可用的CSV文件:\n")
	for i, name := range names {
		var size int64
		if info, err := os.Stat(filepath.Join(d.sandbox.root, name)); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(&b, "  %d. %s (%s bytes)\n", i+1, name, formatInt(size))
	}
	return b.String(), nil
}

// --- 2. load_csv_file ---

func (d *dataTools) loadCSVFile(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 加载CSV文件失败: %v", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 文件: %s\n", filename)
	fmt.Fprintf(&b, "📏 数据维度: %d 行 × %d 列\n", df.Nrow(), df.Ncol())
	fmt.Fprintf(&b, "📋 列名: %s\n\n", columnList(df))
	b.WriteString("📄 前5行数据预览:\n")
	b.WriteString(formatTable(df.Records(), 5))
	return b.String(), nil
}

// --- 3. get_column_info ---

func (d *dataTools) getColumnInfo(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 获取列信息失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}

	col := df.Col(column)
	records := col.Records()

	missing := 0
	var valid []string
	for _, cell := range records {
		if isMissingCell(cell) {
			missing++
			continue
		}
		valid = append(valid, cell)
	}

	seen := make(map[string]struct{})
	var uniques []string
	for _, cell := range valid {
		if _, ok := seen[cell]; !ok {
			seen[cell] = struct{}{}
			uniques = append(uniques, cell)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 列名: %s\n", column)
	fmt.Fprintf(&b, "📏 数据类型: %s\n", col.Type())
	fmt.Fprintf(&b, "📈 非空值数量: %d\n", len(valid))
	fmt.Fprintf(&b, "❌ 缺失值数量: %d\n", missing)
	fmt.Fprintf(&b, "🔢 唯一值数量: %d\n", len(uniques))

	if isNumericColumn(df, column) {
		if vals := columnFloats(df, column); len(vals) > 0 {
			fmt.Fprintf(&b, "📊 数值范围: %v ~ %v\n",
				trimFloat(floats.Min(vals)), trimFloat(floats.Max(vals)))
		}
	}

	preview := uniques
	if len(preview) > 10 {
		preview = preview[:10]
	}
	fmt.Fprintf(&b, "🔍 前10个唯一值: %s\n", strings.Join(preview, ", "))
	return b.String(), nil
}

// --- 4. get_column_stats ---

func (d *dataTools) getColumnStats(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 获取统计信息失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}
	if !isNumericColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不是数值类型，无法计算统计信息", column), nil
	}

	vals := columnFloats(df, column)
	if len(vals) == 0 {
		return fmt.Sprintf("❌ 列 '%s' 没有有效的数值数据", column), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 列 '%s' 统计信息:\n", column)
	fmt.Fprintf(&b, "📏 数据点数量: %d\n", len(vals))
	fmt.Fprintf(&b, "➕ 总和: %s\n", formatNumber(floats.Sum(vals)))
	fmt.Fprintf(&b, "📊 平均值: %s\n", formatNumber(stat.Mean(vals, nil)))
	fmt.Fprintf(&b, "📈 中位数: %s\n", formatNumber(median(vals)))
	fmt.Fprintf(&b, "📉 最小值: %s\n", formatNumber(floats.Min(vals)))
	fmt.Fprintf(&b, "📈 最大值: %s\n", formatNumber(floats.Max(vals)))
	fmt.Fprintf(&b, "📊 标准差: %s\n", formatNumber(sampleStdDev(vals)))
	fmt.Fprintf(&b, "📊 方差: %s\n", formatNumber(sampleVariance(vals)))
	return b.String(), nil
}

// --- 5. calculate_summary ---

func (d *dataTools) calculateSummary(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 计算汇总统计失败: %v", err), nil
	}

	var numericCols []string
	for _, name := range df.Names() {
		if isNumericColumn(df, name) {
			numericCols = append(numericCols, name)
		}
	}
	if len(numericCols) == 0 {
		return "❌ 文件中没有数值列", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 数值列汇总统计 (共%d列):\n\n", len(numericCols))
	for _, name := range numericCols {
		vals := columnFloats(df, name)
		if len(vals) == 0 {
			continue
		}
		fmt.Fprintf(&b, "📈 %s:\n", name)
		fmt.Fprintf(&b, "  总和: %s\n", formatNumber(floats.Sum(vals)))
		fmt.Fprintf(&b, "  平均值: %s\n", formatNumber(stat.Mean(vals, nil)))
		fmt.Fprintf(&b, "  中位数: %s\n", formatNumber(median(vals)))
		fmt.Fprintf(&b, "  标准差: %s\n\n", formatNumber(sampleStdDev(vals)))
	}
	return b.String(), nil
}

// --- 6. get_unique_values ---

func (d *dataTools) getUniqueValues(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 获取唯一值失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}

	seen := make(map[string]struct{})
	var uniques []string
	for _, cell := range df.Col(column).Records() {
		if isMissingCell(cell) {
			continue
		}
		if _, ok := seen[cell]; !ok {
			seen[cell] = struct{}{}
			uniques = append(uniques, cell)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 列 '%s' 的唯一值 (共%d个):\n", column, len(uniques))
	if len(uniques) > 20 {
		b.WriteString("显示前20个唯一值:\n")
		for _, v := range uniques[:20] {
			fmt.Fprintf(&b, "  • %s\n", v)
		}
		fmt.Fprintf(&b, "... 还有 %d 个值", len(uniques)-20)
	} else {
		for _, v := range uniques {
			fmt.Fprintf(&b, "  • %s\n", v)
		}
	}
	return b.String(), nil
}

// --- 7. filter_data ---

var filterOperators = []string{">", "<", "=", ">=", "<=", "!=", "contains"}

func (d *dataTools) filterData(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")
	operator := argString(args, "operator")
	value := args["value"]

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 筛选数据失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}
	if !contains(filterOperators, operator) {
		return fmt.Sprintf("❌ 不支持的操作符: %s。支持的操作符: >, <, =, >=, <=, !=, contains", operator), nil
	}

	records := df.Records()
	colIdx := indexOf(records[0], column)

	matched := [][]string{records[0]}
	for _, row := range records[1:] {
		if matchCell(row[colIdx], operator, value) {
			matched = append(matched, row)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 筛选条件: %s %s %v\n", column, operator, value)
	fmt.Fprintf(&b, "📊 筛选结果: %d 行 (原数据 %d 行)\n\n", len(matched)-1, df.Nrow())
	if len(matched) > 1 {
		b.WriteString("📄 筛选结果预览 (前10行):\n")
		b.WriteString(formatTable(matched, 10))
	} else {
		b.WriteString("❌ 没有找到符合条件的数据")
	}
	return b.String(), nil
}

// matchCell 先嘗試數值比較，退回字串比較。contains 比對子字串。
func matchCell(cell, operator string, value any) bool {
	if operator == "contains" {
		return strings.Contains(cell, fmt.Sprintf("%v", value))
	}

	cellNum, cellErr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	valNum, valOK := asFloat(value)
	if !valOK {
		if s, ok := value.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				valNum, valOK = f, true
			}
		}
	}

	if cellErr == nil && valOK {
		switch operator {
		case ">":
			return cellNum > valNum
		case "<":
			return cellNum < valNum
		case ">=":
			return cellNum >= valNum
		case "<=":
			return cellNum <= valNum
		case "=":
			return cellNum == valNum
		case "!=":
			return cellNum != valNum
		}
	}

	want := fmt.Sprintf("%v", value)
	switch operator {
	case "=":
		return cell == want
	case "!=":
		return cell != want
	case ">":
		return cell > want
	case "<":
		return cell < want
	case ">=":
		return cell >= want
	case "<=":
		return cell <= want
	}
	return false
}

// --- 8. group_by_sum ---

func (d *dataTools) groupBySum(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	groupCol := argString(args, "group_column")
	sumCol := argString(args, "sum_column")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 分组求和失败: %v", err), nil
	}
	if !hasColumn(df, groupCol) {
		return fmt.Sprintf("❌ 分组列 '%s' 不存在。可用列: %s", groupCol, columnList(df)), nil
	}
	if !hasColumn(df, sumCol) {
		return fmt.Sprintf("❌ 求和列 '%s' 不存在。可用列: %s", sumCol, columnList(df)), nil
	}
	if !isNumericColumn(df, sumCol) {
		return fmt.Sprintf("❌ 求和列 '%s' 不是数值类型", sumCol), nil
	}

	groups := groupAggregate(df, groupCol, sumCol, "sum")

	var total float64
	rows := [][]string{{groupCol, sumCol}}
	for _, g := range groups {
		total += g.value
		rows = append(rows, []string{g.key, trimFloat(g.value)})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 按 '%s' 分组，对 '%s' 求和:\n\n", groupCol, sumCol)
	b.WriteString(formatTable(rows, 0))
	fmt.Fprintf(&b, "\n\n📈 总计: %s", formatNumber(total))
	return b.String(), nil
}

// --- 9. group_by_aggregate ---

var aggFunctions = []string{"sum", "mean", "count", "max", "min"}

func (d *dataTools) groupByAggregate(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	groupCol := argString(args, "group_column")
	aggCol := argString(args, "agg_column")
	aggFn := argString(args, "agg_function")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 分组聚合失败: %v", err), nil
	}
	if !hasColumn(df, groupCol) {
		return fmt.Sprintf("❌ 分组列 '%s' 不存在。可用列: %s", groupCol, columnList(df)), nil
	}
	if !hasColumn(df, aggCol) {
		return fmt.Sprintf("❌ 聚合列 '%s' 不存在。可用列: %s", aggCol, columnList(df)), nil
	}
	if !contains(aggFunctions, aggFn) {
		return fmt.Sprintf("❌ 不支持的聚合函数: %s。支持的函数: sum, mean, count, max, min", aggFn), nil
	}
	if aggFn != "count" && !isNumericColumn(df, aggCol) {
		return fmt.Sprintf("❌ 聚合列 '%s' 不是数值类型", aggCol), nil
	}

	groups := groupAggregate(df, groupCol, aggCol, aggFn)

	rows := [][]string{{groupCol, aggCol}}
	for _, g := range groups {
		rows = append(rows, []string{g.key, trimFloat(g.value)})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 按 '%s' 分组，对 '%s' 执行 %s 聚合:\n\n", groupCol, aggCol, aggFn)
	b.WriteString(formatTable(rows, 0))
	return b.String(), nil
}

type groupResult struct {
	key   string
	value float64
}

// groupAggregate 以 map 分組後套用聚合函數，結果按值降序。
func groupAggregate(df dataframe.DataFrame, groupCol, valueCol, fn string) []groupResult {
	records := df.Records()
	gi := indexOf(records[0], groupCol)
	vi := indexOf(records[0], valueCol)

	grouped := make(map[string][]float64)
	var order []string
	for _, row := range records[1:] {
		key := row[gi]
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		if fn == "count" {
			if !isMissingCell(row[vi]) {
				grouped[key] = append(grouped[key], 1)
			}
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[vi]), 64); err == nil {
			grouped[key] = append(grouped[key], v)
		}
	}

	results := make([]groupResult, 0, len(order))
	for _, key := range order {
		vals := grouped[key]
		var v float64
		switch fn {
		case "sum", "count":
			v = floats.Sum(vals)
		case "mean":
			if len(vals) > 0 {
				v = stat.Mean(vals, nil)
			}
		case "max":
			if len(vals) > 0 {
				v = floats.Max(vals)
			}
		case "min":
			if len(vals) > 0 {
				v = floats.Min(vals)
			}
		}
		results = append(results, groupResult{key: key, value: v})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].value > results[j].value
	})
	return results
}

// --- 10. calculate_correlation ---

func (d *dataTools) calculateCorrelation(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	col1 := argString(args, "column1")
	col2 := argString(args, "column2")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 计算相关系数失败: %v", err), nil
	}
	for _, col := range []string{col1, col2} {
		if !hasColumn(df, col) {
			return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", col, columnList(df)), nil
		}
		if !isNumericColumn(df, col) {
			return fmt.Sprintf("❌ 列 '%s' 不是数值类型", col), nil
		}
	}

	// 只取兩列都有效的資料點
	raw1 := df.Col(col1).Float()
	raw2 := df.Col(col2).Float()
	var x, y []float64
	for i := range raw1 {
		if i < len(raw2) && !math.IsNaN(raw1[i]) && !math.IsNaN(raw2[i]) {
			x = append(x, raw1[i])
			y = append(y, raw2[i])
		}
	}
	if len(x) < 2 {
		return "❌ 有效数据点不足，无法计算相关系数", nil
	}

	r := stat.Correlation(x, y, nil)

	var strength string
	switch abs := math.Abs(r); {
	case abs >= 0.8:
		strength = "强"
	case abs >= 0.5:
		strength = "中等"
	case abs >= 0.3:
		strength = "弱"
	default:
		strength = "很弱"
	}
	direction := "负"
	if r > 0 {
		direction = "正"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 列 '%s' 和 '%s' 的相关系数:\n", col1, col2)
	fmt.Fprintf(&b, "🔗 相关系数: %.4f\n\n", r)
	fmt.Fprintf(&b, "📈 相关性: %s%s相关", strength, direction)
	return b.String(), nil
}

// --- 11. get_top_n_rows ---

func (d *dataTools) getTopNRows(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")
	n := argInt(args, "n", 10)
	ascending := argBool(args, "ascending", false)

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 获取排序结果失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}
	if !isNumericColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不是数值类型，无法排序", column), nil
	}

	var sorted dataframe.DataFrame
	if ascending {
		sorted = df.Arrange(dataframe.Sort(column))
	} else {
		sorted = df.Arrange(dataframe.RevSort(column))
	}
	if sorted.Err != nil {
		return fmt.Sprintf("❌ 获取排序结果失败: %v", sorted.Err), nil
	}

	order := "降序"
	if ascending {
		order = "升序"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 按 '%s' %s排列的前%d行:\n\n", column, order, n)
	b.WriteString(formatTable(sorted.Records(), n))
	return b.String(), nil
}

// --- 12. search_rows ---

func (d *dataTools) searchRows(_ context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")
	column := argString(args, "column_name")
	keyword := argString(args, "keyword")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 搜索失败: %v", err), nil
	}
	if !hasColumn(df, column) {
		return fmt.Sprintf("❌ 列 '%s' 不存在。可用列: %s", column, columnList(df)), nil
	}

	records := df.Records()
	colIdx := indexOf(records[0], column)
	lowered := strings.ToLower(keyword)

	matched := [][]string{records[0]}
	for _, row := range records[1:] {
		if strings.Contains(strings.ToLower(row[colIdx]), lowered) {
			matched = append(matched, row)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 在列 '%s' 中搜索 '%s':\n", column, keyword)
	fmt.Fprintf(&b, "📊 找到 %d 行匹配结果\n\n", len(matched)-1)
	if len(matched) > 1 {
		b.WriteString("📄 搜索结果:\n")
		b.WriteString(formatTable(matched, 0))
	} else {
		b.WriteString("❌ 没有找到包含该关键词的行")
	}
	return b.String(), nil
}

// --- 13. professional_data_analysis ---

const analysisPromptTemplate = `你是一个专业的数据分析大师。请对提供的数据进行专业分析，包括：
1. 数据走势分析
2. 同比环比分析
3. 总结性分析
请提供详细、专业的分析报告。`

func (d *dataTools) professionalDataAnalysis(ctx context.Context, args map[string]any) (string, error) {
	filename := argString(args, "filename")

	df, err := readFrame(d.sandbox, filename)
	if err != nil {
		return fmt.Sprintf("❌ 专业数据分析失败: %v", err), nil
	}
	if df.Nrow() == 0 {
		return "❌ 数据文件为空，无法进行分析", nil
	}

	analysisType := argString(args, "analysis_type")
	if analysisType == "" {
		analysisType = "comprehensive"
	}
	return d.analysisText(ctx, df, analysisType), nil
}

// analysisText 優先使用模型產生分析，失敗時退回基礎分析。
// 報告工具共用這個流程。
func (d *dataTools) analysisText(ctx context.Context, df dataframe.DataFrame, analysisType string) string {
	if d.analyzer != nil {
		summary := dataSummary(df)
		prompt := fmt.Sprintf("%s\n\n分析类型：%s\n\n数据摘要：\n%s\n\n请按照提示词要求进行专业的数据分析。",
			analysisPromptTemplate, analysisType, summary)

		content, err := d.analyzer.Analyze(ctx, prompt)
		if err == nil && strings.TrimSpace(content) != "" {
			sep := strings.Repeat("=", 50)
			return fmt.Sprintf("📊 专业数据分析报告\n%s\n\n%s\n\n%s", sep, content, sep)
		}
		d.logger.Warn("AI模型分析失败，使用基础分析", "error", err)
	}
	return BasicAnalysis(df)
}

// dataSummary 準備給模型的資料摘要。
func dataSummary(df dataframe.DataFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "数据行数: %d\n", df.Nrow())
	fmt.Fprintf(&b, "列: %s\n", columnList(df))

	for _, name := range df.Names() {
		if !isNumericColumn(df, name) {
			continue
		}
		vals := columnFloats(df, name)
		if len(vals) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: 总和%s, 平均%s, 最小%s, 最大%s\n", name,
			formatNumber(floats.Sum(vals)), formatNumber(stat.Mean(vals, nil)),
			formatNumber(floats.Min(vals)), formatNumber(floats.Max(vals)))
	}
	return b.String()
}

// BasicAnalysis 不依賴模型的基礎分析，報表產生器也使用它。
func BasicAnalysis(df dataframe.DataFrame) string {
	sep := strings.Repeat("=", 50)

	var b strings.Builder
	b.WriteString("📊 数据分析报告\n")
	b.WriteString(sep + "\n\n")
	fmt.Fprintf(&b, "📈 数据行数: %d\n", df.Nrow())
	fmt.Fprintf(&b, "📋 列数: %d\n\n", df.Ncol())

	section := 1

	var numericCols []string
	for _, name := range df.Names() {
		if isNumericColumn(df, name) {
			numericCols = append(numericCols, name)
		}
	}
	if len(numericCols) > 0 {
		fmt.Fprintf(&b, "%d. 数值列分析\n", section)
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, name := range numericCols {
			vals := columnFloats(df, name)
			if len(vals) == 0 {
				continue
			}
			fmt.Fprintf(&b, "📊 %s:\n", name)
			fmt.Fprintf(&b, "   • 总和: %s\n", formatNumber(floats.Sum(vals)))
			fmt.Fprintf(&b, "   • 平均值: %s\n", formatNumber(stat.Mean(vals, nil)))
			fmt.Fprintf(&b, "   • 最小值: %s\n", formatNumber(floats.Min(vals)))
			fmt.Fprintf(&b, "   • 最大值: %s\n\n", formatNumber(floats.Max(vals)))
		}
		section++
	}

	// 第一個非數值列視為分類維度
	for _, name := range df.Names() {
		if isNumericColumn(df, name) {
			continue
		}
		counts := make(map[string]int)
		var order []string
		for _, cell := range df.Col(name).Records() {
			if isMissingCell(cell) {
				continue
			}
			if _, ok := counts[cell]; !ok {
				order = append(order, cell)
			}
			counts[cell]++
		}

		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})
		if len(order) > 10 {
			order = order[:10]
		}

		fmt.Fprintf(&b, "%d. '%s' 分类分布\n", section, name)
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, key := range order {
			fmt.Fprintf(&b, "   • %s: %d 行\n", key, counts[key])
		}
		b.WriteString("\n")
		break
	}

	b.WriteString(sep)
	return b.String()
}

// --- 共用輔助 ---

func indexOf(row []string, name string) int {
	for i, cell := range row {
		if cell == name {
			return i
		}
	}
	return -1
}

func isMissingCell(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || s == "NaN" || s == "NA"
}

// median 偶數個數取中間兩值平均。
func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sampleStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

func sampleVariance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.Variance(vals, nil)
}

// trimFloat 去掉無意義的小數零，分組結果用。
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatInt 千分位整數格式。
func formatInt(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
