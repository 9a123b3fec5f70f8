package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKOverrides(t *testing.T) {
	t.Run("empty input yields no overrides", func(t *testing.T) {
		overrides, err := parseKOverrides("")
		require.NoError(t, err)
		assert.Empty(t, overrides)
	})

	t.Run("parses bracket=k pairs", func(t *testing.T) {
		overrides, err := parseKOverrides("ranked=24, open=40")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"ranked": 24, "open": 40}, overrides)
	})

	t.Run("rejects malformed pairs", func(t *testing.T) {
		for _, raw := range []string{"ranked", "ranked=", "ranked=abc", "ranked=0", "ranked=-5"} {
			_, err := parseKOverrides(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestKFor(t *testing.T) {
	cfg := &MatchmakerServiceConfig{
		EloKFactor:    32,
		EloKOverrides: map[string]int{"ranked": 24},
	}

	assert.Equal(t, 24, cfg.KFor("ranked"))
	assert.Equal(t, 32, cfg.KFor("open"))
	assert.Equal(t, 32, cfg.KFor(""))
}

func TestExtractPort(t *testing.T) {
	port, err := extractPort(":8080")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	port, err = extractPort("0.0.0.0:9000")
	require.NoError(t, err)
	assert.Equal(t, 9000, port)

	_, err = extractPort("no-port")
	assert.Error(t, err)
}
