package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DevMode  bool   `env:"LOGGER_DEV_MODE" envDefault:"false"`
	Encoding string `env:"LOGGER_ENCODING" envDefault:"console"`
	LogLevel string `env:"LOGGER_LEVEL" envDefault:"info"`
}

// Logger is the logging contract handed to every component at construction.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	With(args ...interface{}) Logger
}

// AppLogger is the zap-backed Logger implementation.
type AppLogger struct {
	cfg   *Config
	sugar *zap.SugaredLogger
}

func NewAppLogger(cfg *Config) *AppLogger {
	if cfg == nil {
		cfg = &Config{}
	}
	return &AppLogger{cfg: cfg}
}

func (l *AppLogger) InitLogger() {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(l.cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if l.cfg.DevMode {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}

	var encoder zapcore.Encoder
	if l.cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	l.sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func (l *AppLogger) logger() *zap.SugaredLogger {
	if l.sugar == nil {
		l.InitLogger()
	}
	return l.sugar
}

func (l *AppLogger) Debug(args ...interface{}) { l.logger().Debug(args...) }
func (l *AppLogger) Debugf(template string, args ...interface{}) {
	l.logger().Debugf(template, args...)
}
func (l *AppLogger) Info(args ...interface{}) { l.logger().Info(args...) }
func (l *AppLogger) Infof(template string, args ...interface{}) {
	l.logger().Infof(template, args...)
}
func (l *AppLogger) Warn(args ...interface{}) { l.logger().Warn(args...) }
func (l *AppLogger) Warnf(template string, args ...interface{}) {
	l.logger().Warnf(template, args...)
}
func (l *AppLogger) Error(args ...interface{}) { l.logger().Error(args...) }
func (l *AppLogger) Errorf(template string, args ...interface{}) {
	l.logger().Errorf(template, args...)
}
func (l *AppLogger) Fatalf(template string, args ...interface{}) {
	l.logger().Fatalf(template, args...)
}

func (l *AppLogger) With(args ...interface{}) Logger {
	return &AppLogger{cfg: l.cfg, sugar: l.logger().With(args...)}
}
