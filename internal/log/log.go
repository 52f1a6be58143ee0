// Package log 提供統一的日誌基礎設施。
//
// 設計原則：日誌器透過依賴注入傳遞，不使用全域狀態。
// 每個元件在建構時接收 logger，並可透過 logger.With() 附加自己的上下文：
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	gw := llm.NewGateway(cfg, logger.With("component", "llm"))
//	ag := agent.New(gw, reg, sessions, logger.With("component", "agent"))
//
// 測試時使用 NewNop() 或 NewWithWriter() 捕獲輸出。
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger 是 *slog.Logger 的型別別名。
// 直接使用標準庫型別可保持與 slog 生態的完全相容，
// 元件以 log.Logger 作為依賴即可。
type Logger = *slog.Logger

// Config 日誌配置選項。
type Config struct {
	// Level 最低輸出等級，預設 slog.LevelInfo。
	Level slog.Level

	// JSON 啟用 JSON 格式輸出，預設文字格式。
	JSON bool

	// AddSource 在日誌中附加來源檔案資訊。
	AddSource bool
}

// New 建立寫入 os.Stderr 的日誌器。
// stderr 保留給日誌，stdout 留給對話輸出。
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter 建立寫入指定 writer 的日誌器，測試時可注入 buffer。
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop 建立丟棄所有輸出的日誌器，僅供測試使用。
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel 解析配置檔中的等級字串，未知值回傳 Info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
