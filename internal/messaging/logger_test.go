package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/serroba/hashlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := messaging.NewZapLogger(zap.New(core))

	adapter.With(watermill.LogFields{"subscriber": "warmer"}).
		Error("read failed", errors.New("boom"), watermill.LogFields{"topic": "links.claimed"})
	adapter.Trace("tick", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, zapcore.ErrorLevel, first.Level)
	assert.Equal(t, "watermill", first.LoggerName)
	assert.Equal(t, "read failed", first.Message)

	fields := first.ContextMap()
	assert.Equal(t, "warmer", fields["subscriber"])
	assert.Equal(t, "links.claimed", fields["topic"])
	assert.Equal(t, "boom", fields["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}
