package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ardhix/warehouse-ledger/config"
)

// New builds the process logger from config. Development mode gets console
// encoding and debug level regardless of the configured defaults.
func New(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	_ = level.Set(cfg.Logger.Level)

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          cfg.Logger.Encoding,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		EncoderConfig:     zap.NewProductionEncoderConfig(),
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		zapCfg.Encoding = "console"
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	log, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
