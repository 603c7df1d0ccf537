package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tests := []struct {
		name     string
		ctx      context.Context
		fallback *slog.Logger
		want     *slog.Logger
	}{
		{name: "logger in context", ctx: WithLogger(context.Background(), custom), fallback: fallback, want: custom},
		{name: "fallback", ctx: context.Background(), fallback: fallback, want: fallback},
		{name: "nil fallback", ctx: context.Background(), fallback: nil, want: slog.Default()},
		{name: "wrong type under key", ctx: context.WithValue(context.Background(), LoggerKey(), "nope"), fallback: fallback, want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoggerFromContextOr(tt.ctx, tt.fallback); got != tt.want {
				t.Errorf("LoggerFromContextOr() = %p, want %p", got, tt.want)
			}
		})
	}

	if got := LoggerFromContext(WithLogger(context.Background(), custom)); got != custom {
		t.Error("LoggerFromContext() did not return the context logger")
	}
}
