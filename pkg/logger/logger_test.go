package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("station-service", &buf).
		WithComponent("shift").
		WithRequestID("req-1").
		WithUserID("user-1").
		WithError(errors.New("boom"))

	log.Info().Str("shift_id", "s-1").Msg("shift submitted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "station-service", line["service"])
	assert.Equal(t, "shift", line["component"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "s-1", line["shift_id"])
	assert.Equal(t, "shift submitted", line["message"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Msg("discarded")
	})
}
