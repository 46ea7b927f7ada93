package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "deploy-notifier", "debug", "json")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := CompassLogger()
	logger.Debug().Str("site_url", "acme.atlassian.net").Msg("Resolving cloud ID")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "deploy-notifier", entry["service"])
	assert.Equal(t, "compass", entry["component"])
	assert.Equal(t, "acme.atlassian.net", entry["site_url"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInitLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "sync-siblings", "loud", "json")

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNotifierLogger_CarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "deploy-notifier", "info", "json")

	logger := NotifierLogger("deploy-1700000000000")
	logger.Info().Msg("started")

	assert.Contains(t, buf.String(), `"run_id":"deploy-1700000000000"`)
	assert.Contains(t, buf.String(), `"component":"notifier"`)
}
