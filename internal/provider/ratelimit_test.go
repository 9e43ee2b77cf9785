package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return []float32{1}, nil
}

type countingCompleter struct {
	calls int
}

func (c *countingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return "ok", nil
}

func TestRateLimitedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	// burst of 2 with a negligible refill rate
	rl := NewRateLimitedEmbedder(inner, 0.0001, 2)

	_, err := rl.Embed(context.Background(), "one")
	require.NoError(t, err)
	_, err = rl.Embed(context.Background(), "two")
	require.NoError(t, err)

	_, err = rl.Embed(context.Background(), "three")
	assert.ErrorIs(t, err, ErrRateLimited, "saturated limiter fails fast instead of queueing")
	assert.Equal(t, 2, inner.calls)
}

func TestRateLimitedCompleter(t *testing.T) {
	inner := &countingCompleter{}
	rl := NewRateLimitedCompleter(inner, 0.0001, 1)

	out, err := rl.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = rl.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, inner.calls)
}
