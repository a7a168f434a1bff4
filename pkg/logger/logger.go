package logger

import (
	"io"
	"os"
	"path/filepath"

	"abroad/pkg/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局日志实例
var Logger *logrus.Logger

// Initialize 按配置初始化全局日志
func Initialize(cfg *config.Config) error {
	l, err := New(cfg.Log)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New 创建日志实例：配置了文件路径时同时写控制台和轮转文件
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)
	return l, nil
}

func output(cfg config.LogConfig) (io.Writer, error) {
	if cfg.FilePath == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, err
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}), nil
}

// GetLogger 获取日志实例，未初始化时返回标准日志（测试、命令行工具）
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return logrus.StandardLogger()
	}
	return Logger
}

// WithOrganization 附带机构ID的日志条目，平台用户记为 "platform"
func WithOrganization(organizationID *uint) *logrus.Entry {
	if organizationID == nil {
		return GetLogger().WithField("organization_id", "platform")
	}
	return GetLogger().WithField("organization_id", *organizationID)
}
