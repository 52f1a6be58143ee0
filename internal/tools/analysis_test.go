package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `region,product,amount,price
north,alpha,100,10
south,beta,200,20
north,gamma,50,5
east,alpha,150,15
`

// newDataRegistry 建立載入完整工具集的 registry，附帶一份測試資料。
func newDataRegistry(t *testing.T, analyzer Analyzer) (*Registry, string) {
	t.Helper()

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "sales.csv"), []byte(salesCSV), 0644))

	sandbox, err := NewSandbox(dataDir)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, RegisterDataTools(reg, Config{
		Sandbox:   sandbox,
		OutputDir: t.TempDir(),
		Analyzer:  analyzer,
	}))
	return reg, dataDir
}

func invoke(t *testing.T, reg *Registry, name string, args map[string]any) string {
	t.Helper()
	out, err := reg.Invoke(context.Background(), name, args)
	require.NoError(t, err)
	return out
}

func TestCatalogueComplete(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)
	assert.Equal(t, 15, reg.Count())
	assert.Equal(t, "list_csv_files", reg.Names()[0])
}

func TestListCSVFiles(t *testing.T) {
	reg, dataDir := newDataRegistry(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.txt"), []byte("x"), 0644))

	out := invoke(t, reg, "list_csv_files", map[string]any{})
	assert.Contains(t, out, "📁 可用的CSV文件:")
	assert.Contains(t, out, "1. sales.csv")
	assert.NotContains(t, out, "notes.txt")
}

func TestListCSVFilesEmpty(t *testing.T) {
	sandbox, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, RegisterDataTools(reg, Config{Sandbox: sandbox, OutputDir: t.TempDir()}))

	out := invoke(t, reg, "list_csv_files", map[string]any{})
	assert.Equal(t, "data文件夹中没有CSV文件", out)
}

func TestLoadCSVFile(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "load_csv_file", map[string]any{"filename": "sales.csv"})
	assert.Contains(t, out, "📊 文件: sales.csv")
	assert.Contains(t, out, "📏 数据维度: 4 行 × 4 列")
	assert.Contains(t, out, "region, product, amount, price")
	assert.Contains(t, out, "📄 前5行数据预览:")
	assert.Contains(t, out, "north")
}

func TestLoadCSVFileMissing(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "load_csv_file", map[string]any{"filename": "nope.csv"})
	assert.Contains(t, out, "❌ 加载CSV文件失败")
	assert.Contains(t, out, "文件不存在: nope.csv")
}

func TestGetColumnInfo(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_column_info", map[string]any{
		"filename": "sales.csv", "column_name": "region",
	})
	assert.Contains(t, out, "📊 列名: region")
	assert.Contains(t, out, "📈 非空值数量: 4")
	assert.Contains(t, out, "🔢 唯一值数量: 3")
}

func TestGetColumnInfoUnknownColumn(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_column_info", map[string]any{
		"filename": "sales.csv", "column_name": "不存在的列",
	})
	assert.Contains(t, out, "❌ 列 '不存在的列' 不存在")
	assert.Contains(t, out, "可用列: region, product, amount, price")
}

func TestGetColumnStats(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_column_stats", map[string]any{
		"filename": "sales.csv", "column_name": "amount",
	})
	assert.Contains(t, out, "📊 列 'amount' 统计信息:")
	assert.Contains(t, out, "📏 数据点数量: 4")
	assert.Contains(t, out, "➕ 总和: 500.00")
	assert.Contains(t, out, "📊 平均值: 125.00")
	assert.Contains(t, out, "📈 中位数: 125.00")
	assert.Contains(t, out, "📉 最小值: 50.00")
	assert.Contains(t, out, "📈 最大值: 200.00")
}

func TestGetColumnStatsNonNumeric(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_column_stats", map[string]any{
		"filename": "sales.csv", "column_name": "region",
	})
	assert.Contains(t, out, "❌ 列 'region' 不是数值类型，无法计算统计信息")
}

func TestCalculateSummary(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "calculate_summary", map[string]any{"filename": "sales.csv"})
	assert.Contains(t, out, "📊 数值列汇总统计 (共2列):")
	assert.Contains(t, out, "📈 amount:")
	assert.Contains(t, out, "📈 price:")
}

func TestGetUniqueValues(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_unique_values", map[string]any{
		"filename": "sales.csv", "column_name": "region",
	})
	assert.Contains(t, out, "🔍 列 'region' 的唯一值 (共3个):")
	assert.Contains(t, out, "• north")
	assert.Contains(t, out, "• south")
	assert.Contains(t, out, "• east")
}

func TestFilterData(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "filter_data", map[string]any{
		"filename": "sales.csv", "column_name": "amount",
		"operator": ">", "value": "100",
	})
	assert.Contains(t, out, "🔍 筛选条件: amount > 100")
	assert.Contains(t, out, "📊 筛选结果: 2 行 (原数据 4 行)")
	assert.Contains(t, out, "south")
	assert.Contains(t, out, "east")
	assert.NotContains(t, out, "gamma")
}

func TestFilterDataNoMatch(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "filter_data", map[string]any{
		"filename": "sales.csv", "column_name": "amount",
		"operator": ">", "value": "9999",
	})
	assert.Contains(t, out, "📊 筛选结果: 0 行 (原数据 4 行)")
	assert.Contains(t, out, "❌ 没有找到符合条件的数据")
}

// 過濾不存在的列必須優雅退化成描述性訊息，不能整個 turn 失敗。
func TestFilterDataUnknownColumnDegrades(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out, err := reg.Invoke(context.Background(), "filter_data", map[string]any{
		"filename": "sales.csv", "column_name": "销售额",
		"operator": ">", "value": "1",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "❌ 列 '销售额' 不存在")
	assert.Contains(t, out, "可用列: region, product, amount, price")
}

func TestFilterDataBadOperator(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	_, err := reg.Invoke(context.Background(), "filter_data", map[string]any{
		"filename": "sales.csv", "column_name": "amount",
		"operator": "~", "value": "1",
	})
	// operator 有 enum 約束，走參數驗證失敗
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestGroupBySum(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "group_by_sum", map[string]any{
		"filename": "sales.csv", "group_column": "region", "sum_column": "amount",
	})
	assert.Contains(t, out, "📊 按 'region' 分组，对 'amount' 求和:")
	assert.Contains(t, out, "south")
	assert.Contains(t, out, "📈 总计: 500.00")

	// 降序：south(200) 排最前
	assert.Less(t, strings.Index(out, "south"), strings.Index(out, "north"))
}

func TestGroupByAggregateMean(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "group_by_aggregate", map[string]any{
		"filename": "sales.csv", "group_column": "region",
		"agg_column": "amount", "agg_function": "mean",
	})
	assert.Contains(t, out, "执行 mean 聚合")
	// south 平均 200，north 平均 75
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "75")
}

func TestCalculateCorrelation(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	// price = amount/10，完全線性正相關
	out := invoke(t, reg, "calculate_correlation", map[string]any{
		"filename": "sales.csv", "column1": "amount", "column2": "price",
	})
	assert.Contains(t, out, "🔗 相关系数: 1.0000")
	assert.Contains(t, out, "📈 相关性: 强正相关")
}

func TestGetTopNRows(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "get_top_n_rows", map[string]any{
		"filename": "sales.csv", "column_name": "amount", "n": float64(2),
	})
	assert.Contains(t, out, "📊 按 'amount' 降序排列的前2行:")
	assert.Contains(t, out, "south")
	assert.Contains(t, out, "east")
	assert.NotContains(t, out, "gamma")
}

func TestSearchRows(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "search_rows", map[string]any{
		"filename": "sales.csv", "column_name": "product", "keyword": "ALPHA",
	})
	assert.Contains(t, out, "🔍 在列 'product' 中搜索 'ALPHA':")
	assert.Contains(t, out, "📊 找到 2 行匹配结果")
}

// filter_data 的 value 可以是模型送來的數字而非字串
func TestFilterDataNumericValue(t *testing.T) {
	reg, _ := newDataRegistry(t, nil)

	out := invoke(t, reg, "filter_data", map[string]any{
		"filename": "sales.csv", "column_name": "amount",
		"operator": ">=", "value": float64(150),
	})
	assert.Contains(t, out, "📊 筛选结果: 2 行 (原数据 4 行)")
}

type fakeAnalyzer struct {
	content string
	err     error
	prompts []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.content, f.err
}

func TestProfessionalAnalysisWithModel(t *testing.T) {
	analyzer := &fakeAnalyzer{content: "六月订购量整体上升，建议关注基础包。"}
	reg, _ := newDataRegistry(t, analyzer)

	out := invoke(t, reg, "professional_data_analysis", map[string]any{
		"filename": "sales.csv",
	})
	assert.Contains(t, out, "📊 专业数据分析报告")
	assert.Contains(t, out, "六月订购量整体上升")

	require.Len(t, analyzer.prompts, 1)
	assert.Contains(t, analyzer.prompts[0], "数据摘要")
	assert.Contains(t, analyzer.prompts[0], "数据行数: 4")
}

func TestProfessionalAnalysisFallsBack(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("model down")}
	reg, _ := newDataRegistry(t, analyzer)

	out := invoke(t, reg, "professional_data_analysis", map[string]any{
		"filename": "sales.csv",
	})
	// 模型失敗時退回基礎分析
	assert.Contains(t, out, "📊 数据分析报告")
	assert.Contains(t, out, "📈 数据行数: 4")
	assert.Contains(t, out, "数值列分析")
}
