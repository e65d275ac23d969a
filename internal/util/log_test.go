package util_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github/chapool/wallet-txengine/internal/util"
)

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("tx_id", "ethereum_0x1").Logger()

	ctx := util.WithLogger(context.Background(), l)
	util.LogFromContext(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"tx_id":"ethereum_0x1"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLogFromContextFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, util.LogFromContext(context.Background()))
}
