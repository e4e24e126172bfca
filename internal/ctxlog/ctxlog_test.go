// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		logger *slog.Logger
	}{
		{
			name:   "with custom logger",
			logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
		},
		{
			name:   "with nil logger should use default",
			logger: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			newCtx := New(ctx, tt.logger)

			logger := Logger(newCtx)

			if tt.logger == nil {
				assert.Same(t, DefaultLogger, logger, "New() with nil logger should store DefaultLogger")
				return
			}

			assert.Same(t, tt.logger, logger, "New() should store the provided logger")
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
				return New(context.Background(), logger)
			},
			expectDefault: false,
		},
		{
			name: "context without logger",
			setupContext: func() context.Context {
				return context.Background()
			},
			expectDefault: true,
		},
		{
			name: "context with nil logger value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, nil)
			},
			expectDefault: true,
		},
		{
			name: "context with wrong type value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupContext()
			logger := Logger(ctx)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger,
					"Logger() should return DefaultLogger when no valid logger in context")
				return
			}

			assert.NotNil(t, logger, "Logger() returned nil")
			assert.NotSame(t, DefaultLogger, logger,
				"Logger() should not return DefaultLogger when context has logger")
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := New(context.Background(), logger)

	tests := []struct {
		name     string
		logFunc  func(context.Context, string, ...any)
		message  string
		args     []any
		expected string
	}{
		{
			name:     "Info logging",
			logFunc:  Info,
			message:  "test info message",
			args:     []any{"key", "value"},
			expected: "INFO",
		},
		{
			name:     "Debug logging",
			logFunc:  Debug,
			message:  "test debug message",
			args:     []any{"debug_key", "debug_value"},
			expected: "DEBUG",
		},
		{
			name:     "Warn logging",
			logFunc:  Warn,
			message:  "test warning message",
			args:     []any{"warn_key", "warn_value"},
			expected: "WARN",
		},
		{
			name:     "Error logging",
			logFunc:  Error,
			message:  "test error message",
			args:     []any{"error_key", "error_value"},
			expected: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, tt.message, tt.args...)

			output := buf.String()
			assert.Contains(t, output, tt.expected)
			assert.Contains(t, output, tt.message)
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		envValue      string
		expectedLevel slog.Level
	}{
		{
			name:          "DEBUG level",
			envValue:      "DEBUG",
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "INFO level",
			envValue:      "INFO",
			expectedLevel: slog.LevelInfo,
		},
		{
			name:          "WARN level",
			envValue:      "WARN",
			expectedLevel: slog.LevelWarn,
		},
		{
			name:          "ERROR level",
			envValue:      "ERROR",
			expectedLevel: slog.LevelError,
		},
		{
			name:          "invalid level defaults to WARN",
			envValue:      "INVALID",
			expectedLevel: slog.LevelWarn,
		},
		{
			name:          "empty level defaults to WARN",
			envValue:      "",
			expectedLevel: slog.LevelWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(logLevelEnvVar, tt.envValue)

			level := logLevelFromEnv()
			assert.Equal(t, tt.expectedLevel, level, "logLevelFromEnv() should return the expected log level")
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	assert.NotNil(t, DefaultLogger, "DefaultLogger should not be nil")

	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	assert.True(t,
		DefaultLogger.Enabled(context.Background(), slog.LevelInfo),
		"DefaultLogger should be enabled for INFO",
	)
}

func TestJSONLogger(t *testing.T) {
	assert.NotNil(t, JSONLogger, "JSONLogger should not be nil")

	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	assert.True(
		t,
		JSONLogger.Enabled(context.Background(), slog.LevelInfo),
		"JSONLogger should be enabled for INFO level when LevelVar is set to DEBUG",
	)
}

func TestLevelVar(t *testing.T) {
	assert.NotNil(t, LevelVar, "LevelVar should not be nil")

	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	assert.Equal(t, slog.LevelDebug, LevelVar.Level(), "LevelVar.Set() should update the level")
}

func TestNewForTUI(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	buf := new(bytes.Buffer)
	ctx := NewForTUI(context.Background(), buf)

	Info(ctx, "buffered message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "buffered message", "NewForTUI logger should write to the supplied writer")
	assert.Contains(t, output, "key")
}

func TestLoggingWithDefaultLogger(t *testing.T) {
	ctx := context.Background()

	// These should not panic and should use DefaultLogger.
	Info(ctx, "test info")
	Debug(ctx, "test debug")
	Warn(ctx, "test warn")
	Error(ctx, "test error")
}
