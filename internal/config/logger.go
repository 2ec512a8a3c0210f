package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level       string `yaml:"level"`
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

func validLevel(level string) bool {
	switch level {
	case "none", "normal", "debug":
		return true
	}
	return false
}

func (conf *LoggingConfig) validate() error {
	if !validLevel(conf.ConsoleLogger.Level) {
		return fmt.Errorf("logging.console.level must be none, normal or debug, got %q", conf.ConsoleLogger.Level)
	}
	if !validLevel(conf.FileLogger.Level) {
		return fmt.Errorf("logging.file.level must be none, normal or debug, got %q", conf.FileLogger.Level)
	}
	switch conf.FileLogger.Mode {
	case "", "append", "overwrite":
	default:
		return fmt.Errorf("logging.file.mode must be append or overwrite, got %q", conf.FileLogger.Mode)
	}
	if conf.FileLogger.Level != "none" && conf.FileLogger.Destination == "" {
		return errors.New("logging.file.destination is required when file logging is enabled")
	}
	return nil
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return isatty.IsTerminal(stream.Fd()) || isatty.IsCygwinTerminal(stream.Fd())
}

// Prepare returns our standard logger and a function closing its log file.
// Console output goes to stderr so it never mixes with command output on
// stdout.
func (conf *LoggingConfig) Prepare() (*zap.Logger, func() error, error) {
	return conf.prepare(zapcore.Lock(os.Stderr), EnableColorOutput(os.Stderr))
}

func (conf *LoggingConfig) prepare(console zapcore.WriteSyncer, color bool) (*zap.Logger, func() error, error) {

	// Console

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var consoleCore zapcore.Core
	switch conf.ConsoleLogger.Level {
	case "normal":
		consoleCore = zapcore.NewCore(newEncoder(ec), console, zapcore.InfoLevel)
	case "debug":
		consoleCore = zapcore.NewCore(newEncoder(ec), console, zapcore.DebugLevel)
	default:
		consoleCore = zapcore.NewNopCore()
	}

	// File

	var (
		fileCore  = zapcore.NewNopCore()
		level     zapcore.Level
		closeFile = func() error { return nil }
	)
	switch conf.FileLogger.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "normal":
		level = zapcore.InfoLevel
	}
	if conf.FileLogger.Level == "debug" || conf.FileLogger.Level == "normal" {
		flags := os.O_CREATE | os.O_WRONLY
		if conf.FileLogger.Mode == "overwrite" {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_APPEND
		}
		f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level)
		closeFile = f.Close
	}

	return zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller()).Named(appName), closeFile, nil
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	newFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
