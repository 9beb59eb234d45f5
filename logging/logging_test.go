package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewPicksLevelByEnvironment(t *testing.T) {
	tests := []struct {
		env   string
		level zapcore.Level
		want  bool
	}{
		{"local", zapcore.DebugLevel, true},
		{"development", zapcore.DebugLevel, true},
		{"production", zapcore.DebugLevel, false},
		{"production", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		l, err := New(tt.env)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, l.Core().Enabled(tt.level), "env %q level %v", tt.env, tt.level)
	}
}
