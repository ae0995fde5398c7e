package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds the application logger: the development configuration when
// debug is set, the production one otherwise. Every entry carries appName
// and appVersion. If the configuration cannot be built, Setup returns a
// JSON logger writing to stderr at info level together with the error.
func Setup(debug bool, appName, appVersion string) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	fields := map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
	}
	cfg.InitialFields = fields

	logger, err := cfg.Build()
	if err != nil {
		return fallback(fields), err
	}
	return logger, nil
}

// fallback does not depend on any configurable output path.
func fallback(fields map[string]interface{}) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stderr), zapcore.InfoLevel)

	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return zap.New(core, zap.Fields(zf...))
}
