package deposit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestRecord_MissingDimension_CanonicalOrder(t *testing.T) {
	rec := &Record{
		Name:         "Sarfartoq",
		Geological:   fptr(70),
		Geopolitical: fptr(50),
	}

	dim, missing := rec.MissingDimension()
	require.True(t, missing)
	assert.Equal(t, DimRegulatory, dim, "first absent dimension in canonical order")
	assert.False(t, rec.Complete())

	rec.Regulatory = fptr(75)
	rec.Ownership = fptr(85)
	rec.Infrastructure = fptr(40)

	_, missing = rec.MissingDimension()
	assert.False(t, missing)
	assert.True(t, rec.Complete())
}

func TestRecord_SetDimension_RoundTrip(t *testing.T) {
	rec := &Record{Name: "Motzfeldt"}

	for i, dim := range DimensionOrder {
		rec.SetDimension(dim, float64(i*10))
	}

	for i, dim := range DimensionOrder {
		v := rec.DimensionValue(dim)
		require.NotNil(t, v, dim)
		assert.Equal(t, float64(i*10), *v)
	}

	assert.Nil(t, rec.DimensionValue("resource_mt"), "non-dimension names return nil")
}

func TestRecord_DerivedMetrics(t *testing.T) {
	rec := &Record{
		Name:         "Tanbreez (Kringlerne)",
		ResourceMt:   fptr(4000),
		TREOGradePct: fptr(0.60),
		HeavyREEPct:  fptr(30),
		UraniumPPM:   fptr(15),
	}

	treo, ok := rec.ContainedTREOKt()
	require.True(t, ok)
	assert.InDelta(t, 24000, treo, 1e-9)

	hree, ok := rec.ContainedHREEKt()
	require.True(t, ok)
	assert.InDelta(t, 7200, hree, 1e-9)

	assert.False(t, rec.UraniumBlocked())

	rec.UraniumPPM = fptr(285) // Kvanefjeld
	assert.True(t, rec.UraniumBlocked())

	bare := &Record{Name: "Qeqertaasaq"}
	_, ok = bare.ContainedTREOKt()
	assert.False(t, ok)
	assert.False(t, bare.UraniumBlocked())
}

func TestRecord_Clone_Independent(t *testing.T) {
	rec := &Record{Name: "Ilimaussaq", Geological: fptr(75)}
	cp := rec.Clone()

	*cp.Geological = 10
	cp.Name = "renamed"

	assert.Equal(t, 75.0, *rec.Geological)
	assert.Equal(t, "Ilimaussaq", rec.Name)
}

func TestCategoryFor_BinEdges(t *testing.T) {
	cases := []struct {
		score float64
		want  Category
	}{
		{10, CategoryLow},
		{40, CategoryLow},
		{40.1, CategoryMedium},
		{60, CategoryMedium},
		{73, CategoryHigh},
		{80, CategoryHigh},
		{80.5, CategoryVeryHigh},
		{100, CategoryVeryHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryFor(tc.score), "score %.1f", tc.score)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"Exploration", StatusExploration, true},
		{"prospect", StatusExploration, true},
		{"Permitted", StatusPermitted, true},
		{"ADVANCING", StatusAdvancing, true},
		{"Producing", StatusProducing, true},
		{"Blocked", StatusBlocked, true},
		{"PGE Focus", StatusUnknown, false},
		{"", StatusUnknown, false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
	}
}

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusExploration.CanTransition(StatusPermitted))
	assert.True(t, StatusPermitted.CanTransition(StatusAdvancing))
	assert.True(t, StatusAdvancing.CanTransition(StatusProducing))
	assert.True(t, StatusAdvancing.CanTransition(StatusBlocked))
	assert.True(t, StatusExploration.CanTransition(StatusBlocked), "ban can land before permitting")
	assert.True(t, StatusPermitted.CanTransition(StatusPermitted), "self-transition allowed")

	assert.False(t, StatusExploration.CanTransition(StatusAdvancing), "no stage skipping")
	assert.False(t, StatusProducing.CanTransition(StatusBlocked))
	assert.False(t, StatusBlocked.CanTransition(StatusProducing))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Deposit: "Kvanefjeld", Field: DimRegulatory, Reason: "value 132.0 outside [0,100]"}
	assert.Equal(t, `deposit "Kvanefjeld" field regulatory_score: value 132.0 outside [0,100]`, err.Error())
}
