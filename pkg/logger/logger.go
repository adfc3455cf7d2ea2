package logger

import "go.uber.org/zap"

// New создает производственный zap-логгер сервиса.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
