package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		gorm     logger.LogLevel
	}{
		{input: "error", expected: LogLevelError, gorm: logger.Error},
		{input: "WARN", expected: LogLevelWarn, gorm: logger.Warn},
		{input: "info", expected: LogLevelInfo, gorm: logger.Info},
		{input: "silent", expected: LogLevelSilent, gorm: logger.Silent},
		{input: "", expected: LogLevelSilent, gorm: logger.Silent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := ParseLogLevel(tt.input)
			assert.Equal(t, tt.expected, level)
			dm := &DatabaseManager{LogLevel: level}
			assert.Equal(t, tt.gorm, dm.gormLogLevel())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}
