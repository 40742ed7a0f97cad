package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Levels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	for level, want := range map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
		" warn ":   zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
	} {
		require.NoError(t, InitWithWriter(level, &bytes.Buffer{}), level)
		assert.Equal(t, want, zerolog.GlobalLevel(), level)
	}
	assert.Error(t, InitWithWriter("verbose", &bytes.Buffer{}))
}

func TestInit_WritesToGivenWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter("debug", &buf))
	log.Debug().Int("k", 3).Msg("counted")
	assert.Contains(t, buf.String(), "counted")
	assert.Contains(t, buf.String(), "k=3")
}
