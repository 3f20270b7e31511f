package common

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel string

// 日志级别
const (
	Debug    LogLevel = "debug"
	Info     LogLevel = "info"
	Warn     LogLevel = "warn"
	Error    LogLevel = "error"
	Critical LogLevel = "critical"
)

// EnvProduction 生产环境
const EnvProduction = "production"

func (p LogLevel) zapLevel() (zapcore.Level, bool) {
	switch LogLevel(strings.ToLower(string(p))) {
	case Debug:
		return zapcore.DebugLevel, true
	case Info:
		return zapcore.InfoLevel, true
	case Warn:
		return zapcore.WarnLevel, true
	case Error:
		return zapcore.ErrorLevel, true
	case Critical:
		return zapcore.DPanicLevel, true
	}
	return zapcore.InfoLevel, false
}

// Logger 日志接口
type Logger interface {
	Debugf(format string, params ...interface{})
	DebugEnabled() bool
	Infof(format string, params ...interface{})
	InfoEnabled() bool
	Warnf(format string, params ...interface{})
	WarnEnabled() bool
	Errorf(format string, params ...interface{})
	ErrorEnabled() bool
	Criticalf(format string, params ...interface{})
	SetLevel(level LogLevel)
	Sync()
}

var (
	logger   Logger = NewZapLogger(&LogConfig{})
	loggerMu sync.Mutex
)

func initLogger(conf *LogConfig) error {
	if conf == nil {
		return fmt.Errorf("no log config")
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()

	fmt.Fprintf(os.Stderr, "init logger env:%s,level:%s,file:%s\n", conf.Env, conf.Level, conf.FileName)
	logger.Sync()
	logger = NewZapLogger(conf)
	return nil
}

// SetLogger replaces the global logger
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// SetLogLevel 设置日志级别,无效的级别被忽略
func SetLogLevel(level LogLevel) {
	logger.SetLevel(level)
}

// Debugf debug
func Debugf(format string, params ...interface{}) {
	logger.Debugf(format, params...)
}

// DebugEnabled is debug enabled
func DebugEnabled() bool {
	return logger.DebugEnabled()
}

// Infof info
func Infof(format string, params ...interface{}) {
	logger.Infof(format, params...)
}

// InfoEnabled is info enabled
func InfoEnabled() bool {
	return logger.InfoEnabled()
}

// Warnf warn
func Warnf(format string, params ...interface{}) {
	logger.Warnf(format, params...)
}

// WarnEnabled is warn enabled
func WarnEnabled() bool {
	return logger.WarnEnabled()
}

// Errorf error
func Errorf(format string, params ...interface{}) {
	logger.Errorf(format, params...)
}

// ErrorEnabled is error enabled
func ErrorEnabled() bool {
	return logger.ErrorEnabled()
}

// Criticalf critical
func Criticalf(format string, params ...interface{}) {
	logger.Criticalf(format, params...)
}

// Logf 按照level输出日志
func Logf(level LogLevel, format string, params ...interface{}) {
	switch level {
	case Debug:
		logger.Debugf(format, params...)
	case Warn:
		logger.Warnf(format, params...)
	case Error:
		logger.Errorf(format, params...)
	case Critical:
		logger.Criticalf(format, params...)
	default:
		logger.Infof(format, params...)
	}
}

// SyncLog flush the buffered log entries
func SyncLog() {
	logger.Sync()
}
