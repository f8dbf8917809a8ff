package logger_test

import (
	"testing"

	"github.com/jrsteele09/go-session-server/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Setup("production", "debug")
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger.Setup("DEV", "not-a-level")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
