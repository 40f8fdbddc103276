package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticwatch/reescan/internal/deposit"
)

func TestCSVSource_Fetch(t *testing.T) {
	csv := `deposit_name,latitude,longitude,geological_score,regulatory_score,ownership_score,infrastructure_score,geopolitical_score,owner,chinese_stake_pct,status
Tanbreez (Kringlerne),60.87,-45.88,85,90,95,60,70,Critical Metals Corp,0,Advancing
Kvanefjeld,60.98,-45.92,90,20,50,65,55,Energy Transition Minerals,9.21,Blocked
`
	src := NewCSVReaderSource("test.csv", strings.NewReader(csv))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, SourceDataset, records[0].Source)
	assert.Equal(t, "Tanbreez (Kringlerne)", records[0].Fields["deposit_name"])
	assert.Equal(t, "90", records[1].Fields["geological_score"])
	assert.Equal(t, "9.21", records[1].Fields["chinese_stake_pct"])
}

func TestCSVSource_ColumnOrderIrrelevant(t *testing.T) {
	csv := `owner,deposit_name,geological_score
Hudson Resources,Sarfartoq,70
`
	src := NewCSVReaderSource("test.csv", strings.NewReader(csv))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sarfartoq", records[0].Fields["deposit_name"])
	assert.Equal(t, "Hudson Resources", records[0].Fields["owner"])
}

func TestCSVSource_HeaderRequired(t *testing.T) {
	src := NewCSVReaderSource("empty.csv", strings.NewReader(""))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")

	src = NewCSVReaderSource("noname.csv", strings.NewReader("foo,bar\n1,2\n"))
	_, err = src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deposit_name")
}

func TestWFSSource_Fetch(t *testing.T) {
	payload := `{
		"type": "FeatureCollection",
		"features": [
			{
				"geometry": {"type": "Point", "coordinates": [-45.92, 60.98]},
				"properties": {
					"deposit_name": "Kvanefjeld",
					"geological_score": 90,
					"uranium_ppm": 285,
					"owner": "Energy Transition Minerals"
				}
			}
		]
	}`
	src := NewWFSReaderSource("geus", strings.NewReader(payload))
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	fields := records[0].Fields
	assert.Equal(t, SourceWFS, records[0].Source)
	assert.Equal(t, "Kvanefjeld", fields["deposit_name"])
	assert.Equal(t, "90", fields["geological_score"])
	assert.Equal(t, "60.98", fields["latitude"], "GeoJSON order is lon,lat")
	assert.Equal(t, "-45.92", fields["longitude"])
}

func TestWFSSource_RejectsNonFeatureCollection(t *testing.T) {
	src := NewWFSReaderSource("geus", strings.NewReader(`{"type":"Feature"}`))
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeatureCollection")
}

func TestWFSSource_FeedsNormalizer(t *testing.T) {
	payload := `{
		"type": "FeatureCollection",
		"features": [
			{
				"geometry": {"type": "Point", "coordinates": [-51.17, 66.48]},
				"properties": {
					"deposit_name": "Sarfartoq",
					"geological_score": 70,
					"regulatory_score": 75,
					"ownership_score": 85,
					"infrastructure_score": 40,
					"geopolitical_score": 50
				}
			}
		]
	}`
	n := NewNormalizer(GreenlandBounds())
	result := n.Ingest(context.Background(), NewWFSReaderSource("geus", strings.NewReader(payload)))

	require.Empty(t, result.Diagnostics)
	rec := result.Records["Sarfartoq"]
	require.NotNil(t, rec)
	assert.True(t, rec.Complete())
	assert.Equal(t, 66.48, rec.Latitude)
}

func TestGuardedSource_PassesThrough(t *testing.T) {
	inner := &stubSource{name: "dataset", records: []RawRecord{
		rawDataset(map[string]string{"deposit_name": "Sarfartoq"}),
	}}
	guarded := Guard(inner, DefaultGuardConfig())

	records, err := guarded.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "dataset", guarded.Name())
	assert.Equal(t, gobreaker.StateClosed, guarded.State())
}

func TestGuardedSource_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubSource{name: "geus-wfs", err: errors.New("503 service unavailable")}

	cfg := DefaultGuardConfig()
	cfg.FailureThreshold = 2
	cfg.RPS = 1000 // keep the test fast
	cfg.Burst = 1000
	guarded := Guard(inner, cfg)

	for i := 0; i < 3; i++ {
		_, err := guarded.Fetch(context.Background())
		require.Error(t, err)

		var unavailable *deposit.SourceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "geus-wfs", unavailable.Source)
	}

	assert.Equal(t, gobreaker.StateOpen, guarded.State())
	assert.Equal(t, 2, inner.calls, "open breaker fails fast without calling the source")
}

func TestGuardedSource_RateLimitRespectsContext(t *testing.T) {
	inner := &stubSource{name: "dataset"}

	cfg := DefaultGuardConfig()
	cfg.RPS = 0.001 // effectively never
	cfg.Burst = 0
	guarded := Guard(inner, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := guarded.Fetch(ctx)
	require.Error(t, err)

	var unavailable *deposit.SourceUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 0, inner.calls)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, GreenlandBounds(), cfg.Bounds)
	assert.Equal(t, 0.0, cfg.ChineseStakeThreshold)
}
