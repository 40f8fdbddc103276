// Package deposit defines the canonical rare-earth deposit record shared by
// the ingestion and scoring layers.
package deposit

import "time"

// Dimension names for the five analytical lenses. These match the column
// names of the flat dataset exactly.
const (
	DimGeological     = "geological_score"
	DimRegulatory     = "regulatory_score"
	DimOwnership      = "ownership_score"
	DimInfrastructure = "infrastructure_score"
	DimGeopolitical   = "geopolitical_score"
)

// DimensionOrder is the canonical ordering used for iteration and reporting.
var DimensionOrder = []string{
	DimGeological,
	DimRegulatory,
	DimOwnership,
	DimInfrastructure,
	DimGeopolitical,
}

// UraniumBanPPM is the uranium concentration above which Greenland's 2021
// uranium mining ban blocks a project.
const UraniumBanPPM = 100.0

// Record is the canonical per-deposit record. The five dimension scores are
// pointers so that an absent score is distinguishable from a zero score — a
// record missing any dimension is incomplete and must not be scored.
type Record struct {
	Name      string  `json:"name" db:"name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`

	Geological     *float64 `json:"geological_score,omitempty" db:"geological_score"`
	Regulatory     *float64 `json:"regulatory_score,omitempty" db:"regulatory_score"`
	Ownership      *float64 `json:"ownership_score,omitempty" db:"ownership_score"`
	Infrastructure *float64 `json:"infrastructure_score,omitempty" db:"infrastructure_score"`
	Geopolitical   *float64 `json:"geopolitical_score,omitempty" db:"geopolitical_score"`

	Owner           string  `json:"owner,omitempty" db:"owner"`
	ChineseStakePct float64 `json:"chinese_stake_pct" db:"chinese_stake_pct"`
	Status          Status  `json:"status" db:"status"`

	// Optional geology metadata carried through from survey and filings
	// sources. Not score inputs.
	ResourceMt   *float64 `json:"resource_mt,omitempty" db:"resource_mt"`
	TREOGradePct *float64 `json:"treo_grade_pct,omitempty" db:"treo_grade_pct"`
	HeavyREEPct  *float64 `json:"heavy_ree_pct,omitempty" db:"heavy_ree_pct"`
	UraniumPPM   *float64 `json:"uranium_ppm,omitempty" db:"uranium_ppm"`

	// Stale marks a record absent from the latest ingestion pass. Records
	// are never deleted.
	Stale     bool      `json:"stale" db:"stale"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DimensionValue returns the score for the named dimension, or nil when the
// dimension is absent or the name is unknown.
func (r *Record) DimensionValue(name string) *float64 {
	switch name {
	case DimGeological:
		return r.Geological
	case DimRegulatory:
		return r.Regulatory
	case DimOwnership:
		return r.Ownership
	case DimInfrastructure:
		return r.Infrastructure
	case DimGeopolitical:
		return r.Geopolitical
	default:
		return nil
	}
}

// SetDimension stores a score under the named dimension. Unknown names are
// ignored; callers validate names at the ingestion boundary.
func (r *Record) SetDimension(name string, value float64) {
	v := value
	switch name {
	case DimGeological:
		r.Geological = &v
	case DimRegulatory:
		r.Regulatory = &v
	case DimOwnership:
		r.Ownership = &v
	case DimInfrastructure:
		r.Infrastructure = &v
	case DimGeopolitical:
		r.Geopolitical = &v
	}
}

// MissingDimension returns the first absent dimension in canonical order.
func (r *Record) MissingDimension() (string, bool) {
	for _, dim := range DimensionOrder {
		if r.DimensionValue(dim) == nil {
			return dim, true
		}
	}
	return "", false
}

// Complete reports whether all five dimension scores are present.
func (r *Record) Complete() bool {
	_, missing := r.MissingDimension()
	return !missing
}

// OwnerKnown reports whether the ownership of the deposit is documented.
func (r *Record) OwnerKnown() bool {
	return r.Owner != ""
}

// UraniumBlocked reports whether the deposit's uranium concentration exceeds
// the ban threshold. False when uranium data is absent.
func (r *Record) UraniumBlocked() bool {
	return r.UraniumPPM != nil && *r.UraniumPPM > UraniumBanPPM
}

// ContainedTREOKt returns the contained total rare-earth oxide in kilotonnes
// derived from resource tonnage and grade, when both are present.
func (r *Record) ContainedTREOKt() (float64, bool) {
	if r.ResourceMt == nil || r.TREOGradePct == nil {
		return 0, false
	}
	return *r.ResourceMt * *r.TREOGradePct / 100 * 1000, true
}

// ContainedHREEKt returns the contained heavy rare-earth oxide in kilotonnes,
// when resource, grade and heavy-REE share are all present.
func (r *Record) ContainedHREEKt() (float64, bool) {
	treo, ok := r.ContainedTREOKt()
	if !ok || r.HeavyREEPct == nil {
		return 0, false
	}
	return treo * *r.HeavyREEPct / 100, true
}

// Clone returns a deep copy of the record. Dimension and metadata pointers
// are duplicated so the copy can be mutated independently.
func (r *Record) Clone() *Record {
	out := *r
	out.Geological = clonePtr(r.Geological)
	out.Regulatory = clonePtr(r.Regulatory)
	out.Ownership = clonePtr(r.Ownership)
	out.Infrastructure = clonePtr(r.Infrastructure)
	out.Geopolitical = clonePtr(r.Geopolitical)
	out.ResourceMt = clonePtr(r.ResourceMt)
	out.TREOGradePct = clonePtr(r.TREOGradePct)
	out.HeavyREEPct = clonePtr(r.HeavyREEPct)
	out.UraniumPPM = clonePtr(r.UraniumPPM)
	return &out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Category buckets a strategic score for reporting. Bin edges follow the
// published dataset methodology: (0,40] Low, (40,60] Medium, (60,80] High,
// (80,100] Very High.
type Category string

const (
	CategoryLow      Category = "Low"
	CategoryMedium   Category = "Medium"
	CategoryHigh     Category = "High"
	CategoryVeryHigh Category = "Very High"
)

// CategoryFor returns the score category for a strategic score in [0,100].
func CategoryFor(score float64) Category {
	switch {
	case score <= 40:
		return CategoryLow
	case score <= 60:
		return CategoryMedium
	case score <= 80:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}
