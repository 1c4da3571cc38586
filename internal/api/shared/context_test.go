package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withTrace := SetTraceID(ctx)
	id := GetTraceID(withTrace)
	assert.Len(t, id, 2*TraceIDLength)

	_, err := hex.DecodeString(id)
	assert.NoError(t, err)

	// The parent context must stay untouched.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDIgnoresWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceIDUniqueness(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		require.Len(t, id, 2*TraceIDLength)
		require.False(t, seen[id], "duplicate trace ID generated")
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := generateFallbackTraceID()
		require.Len(t, id, 2*TraceIDLength)

		_, err := hex.DecodeString(id)
		require.NoError(t, err)

		// Advance the clock enough for the time-derived bytes to move.
		time.Sleep(time.Millisecond)
		assert.False(t, seen[id], "duplicate fallback trace ID")
		seen[id] = true
	}
}
