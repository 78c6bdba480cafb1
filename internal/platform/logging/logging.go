package logging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"workforce/internal/requestctx"
)

// New builds the process logger. format is "json" or "console"; empty picks console outside
// production.
func New(level, format, environment string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	if format == "" {
		format = "json"
		if environment != "production" {
			format = "console"
		}
	}
	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// ContextFields extracts the request-scoped fields carried on ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := requestctx.GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("requestId", id))
	}
	if actor := requestctx.GetActor(ctx); actor != "" {
		fields = append(fields, zap.String("actor", actor))
	}
	return fields
}

// For returns logger enriched with the request fields on ctx.
func For(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
