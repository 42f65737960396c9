package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	t.Run("unknown level falls back to info", func(t *testing.T) {
		Init(config.LoggerConfig{Level: "verbose", Environment: "development"})
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	})

	t.Run("level string is case insensitive", func(t *testing.T) {
		Init(config.LoggerConfig{Level: "DEBUG", Environment: "development"})
		assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
	})

	t.Run("production level applies", func(t *testing.T) {
		Init(config.LoggerConfig{Level: "warn", Environment: "production"})
		assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
	})
}

func TestEventHelpers(t *testing.T) {
	var buf bytes.Buffer
	log = zerolog.New(&buf).With().Timestamp().Logger()

	t.Run("info event carries message and fields", func(t *testing.T) {
		buf.Reset()
		Info().Str("source_id", "src-1").Int("accounts", 42).Msg("aggregation complete")
		out := buf.String()
		assert.Contains(t, out, `"level":"info"`)
		assert.Contains(t, out, "aggregation complete")
		assert.Contains(t, out, "src-1")
		assert.Contains(t, out, "42")
	})

	t.Run("error event carries error field", func(t *testing.T) {
		buf.Reset()
		Error().Str("form_id", "f-9").Msg("form delete failed")
		out := buf.String()
		assert.Contains(t, out, `"level":"error"`)
		assert.Contains(t, out, "f-9")
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log = zerolog.New(&buf)

	child := Component("scheduler")
	child.Info().Msg("job registered")

	out := buf.String()
	assert.Contains(t, out, `"component":"scheduler"`)
	assert.Contains(t, out, "job registered")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log = zerolog.New(&buf).Level(zerolog.WarnLevel)

	Debug().Msg("debug message")
	Info().Msg("info message")
	Warn().Msg("warn message")

	out := buf.String()
	assert.False(t, strings.Contains(out, "debug message"))
	assert.False(t, strings.Contains(out, "info message"))
	assert.Contains(t, out, "warn message")
}
