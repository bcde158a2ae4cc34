package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erasmus-writer/resource-engine/logging"
)

func TestNew_LevelByEnvironment(t *testing.T) {
	prod, err := logging.New("production")
	require.NoError(t, err)
	assert.False(t, prod.Desugar().Core().Enabled(zapcore.DebugLevel))

	dev, err := logging.New("development")
	require.NoError(t, err)
	assert.True(t, dev.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logging.WithRequest(zap.New(core).Sugar(), "req-1", "/api/members/{memberId}/cost")

	log.Infow("handled")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/api/members/{memberId}/cost", fields["endpoint"])
}
