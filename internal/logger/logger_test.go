package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"development", Config{Level: "debug", Environment: "development"}},
		{"production", Config{Level: "warn", Environment: "production"}},
		{"invalid level", Config{Level: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestErrorAttachesError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core).With(zap.String("src", "cao"))

	l.Error("import failed", errors.New("boom"), zap.Int("line", 3))
	l.Info("done")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "import failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "cao", fields["src"])
	assert.Equal(t, int64(3), fields["line"])
	assert.Equal(t, "boom", fields["error"])
}
