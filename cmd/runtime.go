package cmd

import (
	"fmt"

	"github.com/Noah-wb/datachat/internal/agent"
	"github.com/Noah-wb/datachat/internal/calllog"
	"github.com/Noah-wb/datachat/internal/config"
	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/log"
	"github.com/Noah-wb/datachat/internal/session"
	"github.com/Noah-wb/datachat/internal/tools"
)

// runtime 聚合 chat 與 ask 共用的已接線元件。
type runtime struct {
	cfg      *config.Config
	logger   log.Logger
	recorder *calllog.Recorder
	gateway  *llm.Gateway
	registry *tools.Registry
	store    *session.FileStore
	sessions *session.Manager
	agent    *agent.Agent
}

// newRuntime 依配置組裝所有元件。modelName 非空時覆蓋預設模型，
// 啟動選單選定的模型由此生效。
func newRuntime(cfg *config.Config, modelName string) (*runtime, error) {
	logger := newLogger(cfg)

	if modelName != "" {
		if _, ok := cfg.Models[modelName]; !ok {
			return nil, fmt.Errorf("未知的模型: %s (%w)", modelName, config.ErrUnknownModel)
		}
		cfg.DefaultModel = modelName
	}

	// 呼叫記錄是選配，開不了檔案只降級不中止
	recorder, err := calllog.New(cfg.Log.Dir)
	if err != nil {
		logger.Warn("呼叫記錄停用", "error", err)
		recorder = nil
	}

	gateway, err := llm.NewGateway(cfg, logger)
	if err != nil {
		return nil, err
	}

	sandbox, err := tools.NewSandbox(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterDataTools(registry, tools.Config{
		Sandbox:   sandbox,
		OutputDir: cfg.OutputDir,
		Analyzer:  &agent.ModelAnalyzer{Provider: gateway},
		FontPath:  cfg.Report.FontPath,
		Logger:    logger,
	}); err != nil {
		return nil, err
	}

	store, err := session.NewFileStore(cfg.HistoryDir, logger)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(store, logger)

	ag, err := agent.New(agent.Config{
		Provider:      gateway,
		Registry:      registry,
		Sessions:      sessions,
		Recorder:      recorder,
		Logger:        logger,
		MaxToolRounds: cfg.MaxToolRounds(),
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		gateway:  gateway,
		registry: registry,
		store:    store,
		sessions: sessions,
		agent:    ag,
	}, nil
}

func (r *runtime) Close() error {
	if r.recorder != nil {
		return r.recorder.Close()
	}
	return nil
}

func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: log.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
}
