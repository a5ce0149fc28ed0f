package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionLikeWritesJSON(t *testing.T) {
	t.Setenv("CREWBOARD_LOG_LEVEL", "")

	for _, env := range []string{"production", "Staging"} {
		t.Run(env, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, "api-server", env)

			log.Debug().Msg("hidden")
			log.Info().Str("task_id", "t1").Msg("assigned")

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, "api-server", line["service"])
			assert.Equal(t, "assigned", line["message"])
			assert.Equal(t, "t1", line["task_id"])
		})
	}
}

func TestNew_DevelopmentWritesConsole(t *testing.T) {
	t.Setenv("CREWBOARD_LOG_LEVEL", "")

	var buf bytes.Buffer
	log := newLogger(&buf, "api-server", "Development")
	log.Debug().Msg("booting")

	out := buf.String()
	assert.Contains(t, out, "booting")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNew_LevelOverride(t *testing.T) {
	t.Setenv("CREWBOARD_LOG_LEVEL", "WARN")

	var buf bytes.Buffer
	log := newLogger(&buf, "api-server", "production")
	log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
