package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap - общий логгер приложения.
type Zap struct {
	*zap.Logger
}

// New создает логгер: для env "dev" - консольный вывод, иначе JSON.
func New(env, level string) (*Zap, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "dev") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("уровень логирования %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Zap{Logger: l}, nil
}

// Nop - логгер без вывода, для тестов.
func Nop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}

// Named возвращает дочерний логгер с именем подсистемы.
func (z *Zap) Named(name string) *Zap {
	return &Zap{Logger: z.Logger.Named(name)}
}

// With возвращает дочерний логгер с постоянными полями.
func (z *Zap) With(fields ...zap.Field) *Zap {
	return &Zap{Logger: z.Logger.With(fields...)}
}
