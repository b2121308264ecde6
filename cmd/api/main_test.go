package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestBusContextOutlivesSignal(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.WithValue(t.Context(), ctxKey{}, "v"))

	ctx, stop := busContext(parent)
	defer stop()

	cancel()
	require.NoError(t, ctx.Err())
	assert.Equal(t, "v", ctx.Value(ctxKey{}))

	stop()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
