package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志组件，基于zap，支持文件滚动和控制台输出

type Options struct {
	Level      string // debug/info/warn/error
	FileName   string // 为空时只输出到控制台
	TimeFormat string
	MaxSize    int // 单个文件最大MB
	MaxBackups int
	MaxAge     int // 保留天数
	Compress   bool
	LocalTime  bool
	Console    bool
}

type Field = zap.Field

var (
	l    *zap.Logger
	s    *zap.SugaredLogger
	once sync.Once
)

func Init(opt Options) {
	level := zapcore.InfoLevel
	if err := level.Set(opt.Level); err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	if opt.TimeFormat != "" {
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(opt.TimeFormat)
	} else {
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var cores []zapcore.Core
	if opt.FileName != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.FileName,
			MaxSize:    opt.MaxSize,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAge,
			Compress:   opt.Compress,
			LocalTime:  opt.LocalTime,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level))
	}
	if opt.Console || opt.FileName == "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}

	l = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	s = l.Sugar()
}

// 未显式初始化时退回到控制台输出（测试场景）
func ensure() {
	once.Do(func() {
		if l == nil {
			Init(Options{Level: "info", Console: true})
		}
	})
}

func Pair(key string, value any) Field {
	return zap.Any(key, value)
}

func Info(msg string, fields ...Field) {
	ensure()
	l.Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	ensure()
	l.Warn(msg, fields...)
}

func Error(msg string, fields ...Field) {
	ensure()
	l.Error(msg, fields...)
}

func Fatal(msg string, fields ...Field) {
	ensure()
	l.Fatal(msg, fields...)
}

func Infof(format string, args ...any) {
	ensure()
	s.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	ensure()
	s.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	ensure()
	s.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	ensure()
	s.Fatalf(format, args...)
}

func Sync() {
	if l != nil {
		_ = l.Sync()
	}
}
