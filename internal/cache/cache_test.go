package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/score"
)

func fptr(v float64) *float64 { return &v }

func testCache(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, time.Hour)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func sampleSnapshot(batchID string) score.Snapshot {
	engine := score.NewEngine(score.DefaultWeights())
	records := []*deposit.Record{
		{
			Name:           "Tanbreez (Kringlerne)",
			Geological:     fptr(85),
			Regulatory:     fptr(90),
			Ownership:      fptr(95),
			Infrastructure: fptr(60),
			Geopolitical:   fptr(70),
			Owner:          "Critical Metals Corp",
			Status:         deposit.StatusAdvancing,
		},
		{Name: "Incomplete One"},
	}
	return engine.BuildSnapshot(batchID, records)
}

func TestSnapshotCache_StoreAndLatest(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	snap := sampleSnapshot("batch-1")
	require.NoError(t, c.StoreLatest(ctx, snap))

	got, found, err := c.Latest(ctx)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "batch-1", got.BatchID)
	require.Len(t, got.Ranking, 1)
	assert.Equal(t, "Tanbreez (Kringlerne)", got.Ranking[0].Record.Name)
	assert.InDelta(t, snap.Ranking[0].Score, got.Ranking[0].Score, 1e-9)
	assert.Equal(t, deposit.StatusAdvancing, got.Ranking[0].Record.Status)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "incomplete: geological_score", got.Diagnostics[0].Reason)
}

func TestSnapshotCache_BatchLookup(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreLatest(ctx, sampleSnapshot("batch-7")))

	got, found, err := c.Batch(ctx, "batch-7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "batch-7", got.BatchID)

	_, found, err = c.Batch(ctx, "no-such-batch")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCache_LatestEmpty(t *testing.T) {
	c, _ := testCache(t)

	_, found, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, time.Minute)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.StoreLatest(ctx, sampleSnapshot("batch-ttl")))

	mr.FastForward(2 * time.Minute)

	_, found, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCache_Healthy(t *testing.T) {
	c, mr := testCache(t)
	assert.True(t, c.Healthy(context.Background()))

	mr.Close()
	assert.False(t, c.Healthy(context.Background()))
}
