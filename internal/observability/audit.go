package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/recharge-cli/internal/config"
)

// NewAuditLogger builds the results logger: plain single-line records appended
// to a daily-rotated file, independent of the operational logger's level.
// The returned close function must be called once the run is over.
func NewAuditLogger(cfg config.AuditConfig) (*zap.Logger, func() error, error) {
	rotator, err := NewDailyRotator(cfg.LogFile, 0, cfg.MaxBackups, cfg.MaxAge, cfg.Compress)
	if err != nil {
		return nil, nil, err
	}
	core := zapcore.NewCore(auditEncoder(), zapcore.AddSync(rotator), zap.DebugLevel)
	return zap.New(core), rotator.Close, nil
}

// NewAuditLoggerTo is NewAuditLogger over an arbitrary writer.
func NewAuditLoggerTo(w zapcore.WriteSyncer) *zap.Logger {
	return zap.New(zapcore.NewCore(auditEncoder(), w, zap.DebugLevel))
}

func auditEncoder() zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}
	return zapcore.NewConsoleEncoder(encCfg)
}
