package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Initialize runs.
var Log = zap.NewNop()

// RequestIDKey names the request id on a gin context and in log lines.
const RequestIDKey = "request_id"

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Initialize builds Log for env ("production" logs JSON, anything else is
// the colored development console).
func Initialize(env string) {
	InitializeWithWriter(env, nil)
}

// InitializeWithWriter also tees every entry, JSON encoded, to sink. The
// CloudWatch Logs client is passed here.
func InitializeWithWriter(env string, sink io.Writer) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if sink == nil {
		l, err := cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		Log = l
		return
	}

	level := zap.NewAtomicLevelAt(cfg.Level.Level())
	jsonEnc := cfg.EncoderConfig
	jsonEnc.EncodeLevel = zapcore.LowercaseLevelEncoder
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonEnc), zapcore.AddSync(sink), level),
	)
	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func Sync() {
	_ = Log.Sync()
}

// RequestID tags every request with an id, reusing an inbound X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(RequestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), rid))
		c.Next()
	}
}

// WithContext returns ctx carrying requestID for the helpers below.
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func scoped(ctx context.Context, fields []zap.Field) []zap.Field {
	return append(fields, zap.String(RequestIDKey, getRequestID(ctx)))
}

func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, scoped(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Warn(msg, scoped(ctx, fields)...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Info(msg, scoped(ctx, fields)...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Debug(msg, scoped(ctx, fields)...)
}

// getRequestID accepts both a *gin.Context and a context built by WithContext.
func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if gc, ok := ctx.(*gin.Context); ok {
		if rid := gc.GetString(RequestIDKey); rid != "" {
			return rid
		}
		if gc.Request == nil {
			return "unknown"
		}
		ctx = gc.Request.Context()
	}
	if rid, ok := ctx.Value(ctxKey{}).(string); ok && rid != "" {
		return rid
	}
	return "unknown"
}
