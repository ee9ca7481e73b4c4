// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	once        sync.Once
	initialized atomic.Bool
	logger      zerolog.Logger
)

type ctxKey string

// RequestIDKey 请求ID在上下文中的键
const RequestIDKey ctxKey = "request_id"

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器, 只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stdout":
			output = os.Stdout
		case "file":
			output = os.Stderr
			if cfg.FilePath != "" {
				if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
					output = f
				}
			}
		default:
			output = os.Stderr
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
		initialized.Store(true)
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if !initialized.Load() {
		Init(DefaultConfig())
	}
	return &logger
}

// ContextWithRequestID 把请求ID放入上下文
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID 从上下文读取请求ID
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if reqID := RequestID(ctx); reqID != "" {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// AllocationLogger 分配引擎专用日志器
type AllocationLogger struct {
	base *zerolog.Logger
}

// NewAllocationLogger 创建分配引擎日志器
func NewAllocationLogger() *AllocationLogger {
	l := Get().With().Str("component", "allocator").Logger()
	return &AllocationLogger{base: &l}
}

// StartRun 记录分配开始
func (l *AllocationLogger) StartRun(planID, profile string, employees, slots int) {
	l.base.Info().
		Str("plan_id", planID).
		Str("profile", profile).
		Int("employees", employees).
		Int("slots", slots).
		Msg("开始分配空缺班次")
}

// SlotAssigned 记录班次分配结果
func (l *AllocationLogger) SlotAssigned(slotID, employeeID string, score float64, kind string) {
	l.base.Debug().
		Str("slot_id", slotID).
		Str("employee_id", employeeID).
		Float64("score", score).
		Str("kind", kind).
		Msg("班次已分配")
}

// SlotUnassigned 记录无法分配的班次
func (l *AllocationLogger) SlotUnassigned(slotID, reason string, nearMisses int) {
	l.base.Info().
		Str("slot_id", slotID).
		Str("reason", reason).
		Int("near_misses", nearMisses).
		Msg("班次无法分配")
}

// UnknownPolicyKeys 记录被忽略的未知策略键
func (l *AllocationLogger) UnknownPolicyKeys(profile string, keys []string) {
	l.base.Warn().
		Str("profile", profile).
		Strs("keys", keys).
		Msg("忽略未知策略键")
}

// RunComplete 记录分配完成
func (l *AllocationLogger) RunComplete(planID string, duration time.Duration, fillRate float64) {
	l.base.Info().
		Str("plan_id", planID).
		Dur("duration", duration).
		Float64("fill_rate", fillRate).
		Msg("分配完成")
}

// UnmatchedRules 记录没有匹配到任何员工的规则键
func (l *AllocationLogger) UnmatchedRules(profile string, keys []string) {
	l.base.Debug().
		Str("profile", profile).
		Strs("keys", keys).
		Msg("规则键没有匹配到员工")
}
