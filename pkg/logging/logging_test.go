package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{name: "production", debug: false},
		{name: "development", debug: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(tt.debug, "promptpack", "test")
			require.NoError(t, err)
			require.NotNil(t, logger)

			assert.Equal(t, tt.debug, logger.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestFallback(t *testing.T) {
	logger := fallback(map[string]interface{}{"appName": "promptpack"})
	require.NotNil(t, logger)

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
