package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduper_TTL(t *testing.T) {
	d := NewMemoryDeduper(time.Minute, time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	seen, err := d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.MarkProcessed(ctx, "evt_1"))
	seen, err = d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	d.cleanup()
	assert.Equal(t, 0, d.size())
}

func TestMemoryDeduper_CleanupLoopStops(t *testing.T) {
	d := NewMemoryDeduper(time.Millisecond, time.Millisecond)
	require.NoError(t, d.MarkProcessed(context.Background(), "evt_1"))

	d.Start(context.Background())
	assert.Eventually(t, func() bool { return d.size() == 0 }, time.Second, 5*time.Millisecond)
	d.Stop()
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "commerce:webhook:event:evt_1", eventKey("evt_1"))
}
