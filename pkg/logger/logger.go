package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// current 全局 logger，未初始化前丢弃所有输出
var current atomic.Pointer[zerolog.Logger]

func init() {
	reset()
}

func reset() {
	discard := zerolog.New(io.Discard)
	current.Store(&discard)
}

// Init 初始化 zerolog 日志
// level: 日志级别 ("trace", "debug", "info", "warn", "error")
// file: 日志文件路径，为空时仅输出到控制台
func Init(level string, file string) error {
	return InitWithWriter(level, file, os.Stdout)
}

// InitWithWriter 与 Init 相同，控制台输出写入 out
// TUI 模式下传入 io.Discard，避免日志打乱界面
func InitWithWriter(level string, file string, out io.Writer) error {
	logLevel := ParseLevel(level)

	var writers []io.Writer
	if out != nil && out != io.Discard {
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"})
	}

	if file != "" {
		fileWriter, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		// 文件中保留 JSON 格式，便于检索
		writers = append(writers, fileWriter)
	}

	var output io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		output = writers[0]
	default:
		output = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(output).With().Timestamp().Logger().Level(logLevel)
	current.Store(&logger)
	return nil
}

// ParseLevel 解析日志级别，无法识别时返回 info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 返回全局 logger 实例，可并发调用
// 未初始化时返回输出到 /dev/null 的 logger
func Get() *zerolog.Logger {
	return current.Load()
}
