package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志接口（业务侧只依赖该接口，便于替换实现）
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithField(key string, value interface{}) Logger
}

// New 创建 Logger。driver 可选 "logrus"（默认）或 "zap"。
func New(driver, level, format, output, path string) (Logger, error) {
	switch driver {
	case "", "logrus":
		return newLogrus(level, format, output, path)
	case "zap":
		return newZap(level, format, output, path)
	default:
		return nil, fmt.Errorf("unknown logger driver: %s", driver)
	}
}

func openOutput(output, path string) (io.Writer, error) {
	if output != "file" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	// 文件输出时同时打一份到 stdout，便于容器环境采集
	return io.MultiWriter(os.Stdout, file), nil
}

// logrusLogger logrus 实现（默认）
type logrusLogger struct {
	entry *logrus.Entry
}

func newLogrus(level, format, output, path string) (*logrusLogger, error) {
	log := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.DebugLevel
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	writer, err := openOutput(output, path)
	if err != nil {
		return nil, err
	}
	log.SetOutput(writer)

	return &logrusLogger{entry: logrus.NewEntry(log)}, nil
}

func (l *logrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// zapLogger zap 实现
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZap(level, format, output, path string) (*zapLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer, err := openOutput(output, path)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), zapLevel)
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &zapLogger{sugar: base.Sugar()}, nil
}

func (l *zapLogger) Debug(args ...interface{})                 { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Info(args ...interface{})                  { l.sugar.Info(args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warn(args ...interface{})                  { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Error(args ...interface{})                 { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *zapLogger) Fatal(args ...interface{})                 { l.sugar.Fatal(args...) }
func (l *zapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &zapLogger{sugar: l.sugar.With(kv...)}
}

func (l *zapLogger) WithField(key string, value interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(key, value)}
}
