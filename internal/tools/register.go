package tools

import (
	"fmt"

	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/log"
)

// Config wires the data toolset's dependencies.
type Config struct {
	// Sandbox confines file access to the CSV data root (required).
	Sandbox *Sandbox
	// OutputDir is where reports and charts land when the model does
	// not name a directory.
	OutputDir string
	// Analyzer backs professional_data_analysis and report generation;
	// nil falls back to the built-in basic analysis.
	Analyzer Analyzer
	// FontPath is an optional TTF font for CJK text in PDF reports.
	FontPath string
	Logger   log.Logger
}

// RegisterDataTools registers the full CSV analysis toolset on reg.
func RegisterDataTools(reg *Registry, cfg Config) error {
	if cfg.Sandbox == nil {
		return fmt.Errorf("tools: sandbox is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	d := &dataTools{
		sandbox:   cfg.Sandbox,
		logger:    logger,
		analyzer:  cfg.Analyzer,
		outputDir: cfg.OutputDir,
		fontPath:  cfg.FontPath,
	}

	filenameProp := llm.ToolProperty{Type: "string", Description: "CSV文件名"}
	columnProp := llm.ToolProperty{Type: "string", Description: "列名"}

	catalogue := []*Tool{
		{
			Name:        "list_csv_files",
			Description: "列出data文件夹中的所有CSV文件",
			Schema:      &llm.ToolSchema{Type: "object", Properties: map[string]llm.ToolProperty{}},
			Handler:     d.listCSVFiles,
		},
		{
			Name:        "load_csv_file",
			Description: "加载CSV文件并返回基本信息：数据维度、列名和前5行预览",
			Schema: &llm.ToolSchema{
				Type:       "object",
				Properties: map[string]llm.ToolProperty{"filename": filenameProp},
				Required:   []string{"filename"},
			},
			Handler: d.loadCSVFile,
		},
		{
			Name:        "get_column_info",
			Description: "获取指定列的详细信息：数据类型、缺失值、唯一值",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
				},
				Required: []string{"filename", "column_name"},
			},
			Handler: d.getColumnInfo,
		},
		{
			Name:        "get_column_stats",
			Description: "获取数值列的统计信息：总和、平均值、中位数、最值、标准差",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
				},
				Required: []string{"filename", "column_name"},
			},
			Handler: d.getColumnStats,
		},
		{
			Name:        "calculate_summary",
			Description: "计算所有数值列的汇总统计",
			Schema: &llm.ToolSchema{
				Type:       "object",
				Properties: map[string]llm.ToolProperty{"filename": filenameProp},
				Required:   []string{"filename"},
			},
			Handler: d.calculateSummary,
		},
		{
			Name:        "get_unique_values",
			Description: "获取列的所有唯一值",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
				},
				Required: []string{"filename", "column_name"},
			},
			Handler: d.getUniqueValues,
		},
		{
			Name:        "filter_data",
			Description: "根据条件筛选数据并返回行数与预览",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
					"operator": {
						Type:        "string",
						Description: "比较操作符",
						Enum:        filterOperators,
					},
					"value": {Description: "比较值，可为数字或字符串"},
				},
				Required: []string{"filename", "column_name", "operator", "value"},
			},
			Handler: d.filterData,
		},
		{
			Name:        "group_by_sum",
			Description: "按列分组并对数值列求和，结果降序排列",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":     filenameProp,
					"group_column": {Type: "string", Description: "分组列名"},
					"sum_column":   {Type: "string", Description: "求和列名"},
				},
				Required: []string{"filename", "group_column", "sum_column"},
			},
			Handler: d.groupBySum,
		},
		{
			Name:        "group_by_aggregate",
			Description: "分组聚合分析：sum、mean、count、max、min",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":     filenameProp,
					"group_column": {Type: "string", Description: "分组列名"},
					"agg_column":   {Type: "string", Description: "聚合列名"},
					"agg_function": {
						Type:        "string",
						Description: "聚合函数",
						Enum:        aggFunctions,
					},
				},
				Required: []string{"filename", "group_column", "agg_column", "agg_function"},
			},
			Handler: d.groupByAggregate,
		},
		{
			Name:        "calculate_correlation",
			Description: "计算两个数值列的皮尔逊相关系数并解读强弱",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename": filenameProp,
					"column1":  {Type: "string", Description: "第一个列名"},
					"column2":  {Type: "string", Description: "第二个列名"},
				},
				Required: []string{"filename", "column1", "column2"},
			},
			Handler: d.calculateCorrelation,
		},
		{
			Name:        "get_top_n_rows",
			Description: "按指定数值列排序并返回前N行",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
					"n":           {Type: "integer", Description: "返回行数"},
					"ascending":   {Type: "boolean", Description: "是否升序排列，默认降序"},
				},
				Required: []string{"filename", "column_name", "n"},
			},
			Handler: d.getTopNRows,
		},
		{
			Name:        "search_rows",
			Description: "在列中搜索包含关键词的行（不区分大小写）",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":    filenameProp,
					"column_name": columnProp,
					"keyword":     {Type: "string", Description: "搜索关键词"},
				},
				Required: []string{"filename", "column_name", "keyword"},
			},
			Handler: d.searchRows,
		},
		{
			Name:        "professional_data_analysis",
			Description: "专业数据分析：数据走势、对比与总结性分析",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename": filenameProp,
					"analysis_type": {
						Type:        "string",
						Description: "分析类型",
						Enum:        []string{"comprehensive", "daily_trend", "comparison", "summary"},
					},
				},
				Required: []string{"filename"},
			},
			Handler: d.professionalDataAnalysis,
		},
		{
			Name:        "generate_pdf_report",
			Description: "生成PDF格式的数据分析报告（含图表），返回文件路径",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":     filenameProp,
					"output_dir":   {Type: "string", Description: "输出目录"},
					"report_title": {Type: "string", Description: "报告标题"},
				},
				Required: []string{"filename"},
			},
			Handler: d.generatePDFReport,
		},
		{
			Name:        "generate_html_report",
			Description: "生成HTML格式的数据分析报告（含图表），返回文件路径",
			Schema: &llm.ToolSchema{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"filename":     filenameProp,
					"output_dir":   {Type: "string", Description: "输出目录"},
					"report_title": {Type: "string", Description: "报告标题"},
				},
				Required: []string{"filename"},
			},
			Handler: d.generateHTMLReport,
		},
	}

	for _, t := range catalogue {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
