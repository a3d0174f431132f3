package logger

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New builds the service logger. Production gets JSON output; anything
// else gets the colored development encoder.
func New(environment string) (*zap.Logger, error) {
    var cfg zap.Config

    if environment == "production" {
        cfg = zap.NewProductionConfig()
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }

    cfg.EncoderConfig.CallerKey = "caller"
    cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

    return cfg.Build(zap.AddCaller())
}
