package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("Should build a console logger at the requested level", func(t *testing.T) {
		l, err := New("warn", FormatConsole)
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})
	t.Run("Should build a JSON logger", func(t *testing.T) {
		l, err := New("debug", FormatJSON)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})
	t.Run("Should reject unknown levels", func(t *testing.T) {
		_, err := New("loud", FormatJSON)
		assert.Error(t, err)
	})
	t.Run("Should reject unknown formats", func(t *testing.T) {
		_, err := New("info", "xml")
		assert.ErrorContains(t, err, "unsupported log format")
	})
}
