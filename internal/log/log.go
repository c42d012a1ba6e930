package log

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"murlie/internal/domain"
)

// Init installs the process logger: JSON to a rotating file when filename is
// set, console to stdout always. mode "production" raises the level to info.
func Init(mode, filename string) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	if mode == "production" {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}
	if filename != "" {
		rotate := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotate),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger
}

func write(level zapcore.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := zap.L()
	if ce := l.Check(level, action); ce != nil {
		fs := make([]zap.Field, 0, 8)
		if c != nil {
			fs = append(fs,
				zap.String("ip", c.IP()),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().StatusCode()),
			)
			if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
				fs = append(fs, zap.String("req_id", rid))
			}
			if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
				fs = append(fs, zap.String("user_id", u.ID))
			}
		}
		if err != nil {
			fs = append(fs, zap.Error(err))
		}
		if len(fields) > 0 {
			fs = append(fs, zap.Any("fields", fields))
		}
		ce.Write(fs...)
	}
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, fields)
}

// Audit records a state-changing action by a user or admin.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, withKind(fields, "audit"))
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, c, action, err, fields)
}

func withKind(fields map[string]any, kind string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["kind"] = kind
	return out
}
