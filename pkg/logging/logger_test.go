package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/fauna-labs/fwitter/pkg/config"
)

func TestInitLogger(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json format", config.LoggingConfig{Level: "INFO", Format: "json"}},
		{"text format", config.LoggingConfig{Level: "DEBUG", Format: "text"}},
		{"bad level falls back to info", config.LoggingConfig{Level: "bogus", Format: "json"}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if err := InitLogger(&tt.cfg); err != nil {
				t.Fatalf("InitLogger() error = %v", err)
			}
			if Logger == nil {
				t.Fatal("InitLogger() left Logger nil")
			}
		})
	}
}

func TestGetLoggerFallback(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	Logger = nil
	if GetLogger() == nil {
		t.Error("GetLogger() should never return nil")
	}
}

func TestWithComponent(t *testing.T) {
	logger := WithComponent("feed")
	if logger == nil {
		t.Fatal("WithComponent() returned nil")
	}
	// Check the field is accepted at the core level
	if ok := logger.Core().Enabled(zapcore.InfoLevel); !ok {
		t.Error("expected info level to be enabled on default logger")
	}
}
