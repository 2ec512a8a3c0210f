package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Library != want.Library || cfg.Reader != want.Reader || cfg.Logging != want.Logging {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
library:
  backend: bolt
  path: /tmp/books.db
reader:
  page_size: 300
  theme: dark
logging:
  console:
    level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library.Backend != "bolt" || cfg.Library.Path != "/tmp/books.db" {
		t.Errorf("Library = %+v", cfg.Library)
	}
	if cfg.Reader.PageSize != 300 || cfg.Reader.Theme != "dark" {
		t.Errorf("Reader = %+v", cfg.Reader)
	}
	// Keys missing from the file keep their defaults
	if cfg.Reader.FontSize != 16 {
		t.Errorf("FontSize = %d, want the default", cfg.Reader.FontSize)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "")); err != nil {
		t.Errorf("Load(empty file): %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FOLIO_LIBRARY_BACKEND", "bolt")
	t.Setenv("FOLIO_LIBRARY_PATH", "/data/lib.db")
	t.Setenv("FOLIO_LOG_LEVEL", "none")
	t.Setenv("FOLIO_PAGE_SIZE", " 150 ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library.Backend != "bolt" || cfg.Library.Path != "/data/lib.db" ||
		cfg.Logging.ConsoleLogger.Level != "none" || cfg.Reader.PageSize != 150 {
		t.Errorf("Load() = %+v", cfg)
	}

	t.Setenv("FOLIO_PAGE_SIZE", "many")
	if _, err := Load(""); err == nil {
		t.Error("expected an error for a non-numeric FOLIO_PAGE_SIZE")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"backend", "library: {backend: sqlite}", "library.backend"},
		{"page size", "reader: {page_size: 0}", "reader.page_size"},
		{"font size", "reader: {font_size: 30}", "reader.font_size"},
		{"theme", "reader: {theme: sepia}", "reader.theme"},
		{"console level", "logging: {console: {level: loud}}", "logging.console.level"},
		{"file mode", "logging: {file: {mode: rotate}}", "logging.file.mode"},
		{"file destination", "logging: {file: {level: debug}}", "logging.file.destination"},
		{"unknown key", "reader: {colour: red}", "colour"},
		{"syntax", "reader: [", "config:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.HasPrefix(err.Error(), "config:") || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	cfg := &Config{}
	if err := Unmarshal(data, cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate after a round trip: %v", err)
	}
}

func TestPrepareConsole(t *testing.T) {
	tests := []struct {
		level     string
		wantInfo  bool
		wantDebug bool
	}{
		{"none", false, false},
		{"normal", true, false},
		{"debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			conf := LoggingConfig{ConsoleLogger: LoggerConfig{Level: tt.level}, FileLogger: LoggerConfig{Level: "none"}}
			log, closeLog, err := conf.prepare(zapcore.AddSync(&buf), false)
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			defer closeLog()
			log.Info("info message")
			log.Debug("debug message")

			out := buf.String()
			if got := strings.Contains(out, "info message"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v:\n%s", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v:\n%s", got, tt.wantDebug, out)
			}
			if tt.wantInfo && !strings.Contains(out, "folio") {
				t.Errorf("logger is not named:\n%s", out)
			}
		})
	}
}

func TestPrepareFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "folio.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
	}
	log, closeLog, err := conf.prepare(zapcore.AddSync(&bytes.Buffer{}), false)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	log.Info("to the file")
	log.Debug("filtered")
	log.Sync()
	if err := closeLog(); err != nil {
		t.Fatalf("closing the log file: %v", err)
	}
	if err := closeLog(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("second close = %v, want os.ErrClosed", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "to the file") || strings.Contains(string(data), "filtered") {
		t.Errorf("log file content:\n%s", data)
	}
}

func TestPrepareConsoleOnlyClose(t *testing.T) {
	conf := LoggingConfig{ConsoleLogger: LoggerConfig{Level: "normal"}, FileLogger: LoggerConfig{Level: "none"}}
	_, closeLog, err := conf.prepare(zapcore.AddSync(&bytes.Buffer{}), false)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Errorf("close without a log file = %v", err)
	}
}

func TestPrepareBadDestination(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: filepath.Join(t.TempDir(), "missing", "dir", "x.log")},
	}
	if _, _, err := conf.prepare(zapcore.AddSync(&bytes.Buffer{}), false); err == nil {
		t.Error("expected an error for an unwritable destination")
	}
}
