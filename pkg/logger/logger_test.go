package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, 期望 %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Fatal("空上下文不应有请求ID")
	}
	ctx = ContextWithRequestID(ctx, "req_0123456789abcdef")
	if got := RequestID(ctx); got != "req_0123456789abcdef" {
		t.Errorf("RequestID = %q", got)
	}
	if WithContext(ctx) == nil {
		t.Error("WithContext 不应返回 nil")
	}
}

func TestGetInitializes(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get 应返回日志器")
	}
	if !initialized.Load() {
		t.Error("Get 之后应已初始化")
	}
}
