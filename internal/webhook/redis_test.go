package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"commerce-service-go/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands RedisDeduper issues
type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	if _, ok := f.keys[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	f.keys[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func TestRedisDeduper(t *testing.T) {
	ctx := context.Background()
	client := &fakeRedis{keys: map[string]time.Duration{}}
	d := NewRedisDeduper(client, time.Hour)

	seen, err := d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.MarkProcessed(ctx, "evt_1"))
	assert.Equal(t, time.Hour, client.keys["commerce:webhook:event:evt_1"])

	seen, err = d.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, d.MarkProcessed(ctx, "evt_1"), "a second writer is not an error")
}

func TestRedisDeduper_Errors(t *testing.T) {
	ctx := context.Background()
	d := NewRedisDeduper(&fakeRedis{keys: map[string]time.Duration{}, err: errors.New("connection refused")}, time.Hour)

	_, err := d.Seen(ctx, "evt_1")
	assert.ErrorContains(t, err, "redis exists failed")
	assert.ErrorContains(t, d.MarkProcessed(ctx, "evt_1"), "redis setnx failed")
}

func TestHandleEvent_RedisDeduperFailureFallsBackToStore(t *testing.T) {
	f := newFixture(t, NewRedisDeduper(&fakeRedis{keys: map[string]time.Duration{}, err: errors.New("down")}, time.Hour))
	f.setStatus(t, models.PurchaseStatusProcessing)

	res, err := f.reconciler.HandleEvent(context.Background(),
		payload(t, fakeEvent{Id: "evt_r", Type: "payment_intent.succeeded", Intent: "pi_123", Status: "succeeded"}),
		validSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
}
