package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONWithServiceAndRequest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "debug", Output: &buf}))
	t.Cleanup(Close)

	l := ForRequest("req-1")
	l.Info().Str("mode", "research").Msg("hello")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	require.Equal(t, "hello", ev["message"])
	require.Equal(t, "jarvis", ev["service"])
	require.Equal(t, "req-1", ev["request_id"])
	require.Equal(t, "research", ev["mode"])
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "loud", Output: &buf}))

	log.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	log.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
