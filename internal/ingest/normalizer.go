package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arcticwatch/reescan/internal/deposit"
)

// Bounds is the geographic sanity-check box. Coordinates outside it produce
// a warning diagnostic; the record is still included.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// GreenlandBounds returns the bounding box covering Greenland with margin.
func GreenlandBounds() Bounds {
	return Bounds{MinLat: 59.0, MaxLat: 84.0, MinLon: -75.0, MaxLon: -10.0}
}

// Contains reports whether the coordinate pair lies inside the box.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// PassResult is the outcome of one ingestion pass: the deduplicated record
// set so far plus everything that went wrong along the way.
type PassResult struct {
	BatchID     string
	Records     map[string]*deposit.Record
	Diagnostics []deposit.Diagnostic
	Ingested    int
	Rejected    int

	// IngestedBySource counts accepted raw records per source name.
	IngestedBySource map[string]int
}

// Normalizer accumulates canonical records across ingestion passes. Records
// are matched by deposit name; a record absent from the latest pass is
// marked stale, never deleted.
type Normalizer struct {
	bounds  Bounds
	records map[string]*deposit.Record
}

// NewNormalizer creates a normalizer with the given sanity-check bounds.
func NewNormalizer(bounds Bounds) *Normalizer {
	return &Normalizer{
		bounds:  bounds,
		records: make(map[string]*deposit.Record),
	}
}

// Records returns the current record set keyed by deposit name.
func (n *Normalizer) Records() map[string]*deposit.Record {
	return n.records
}

// List returns the current records as a slice.
func (n *Normalizer) List() []*deposit.Record {
	out := make([]*deposit.Record, 0, len(n.records))
	for _, rec := range n.records {
		out = append(out, rec)
	}
	return out
}

// SnapshotRecords returns a deep copy of the current record set. Later
// passes mutate the live records in place, so anything handed to concurrent
// readers must go through here.
func (n *Normalizer) SnapshotRecords() map[string]*deposit.Record {
	out := make(map[string]*deposit.Record, len(n.records))
	for name, rec := range n.records {
		out[name] = rec.Clone()
	}
	return out
}

// Ingest runs one pass over the given sources. Source failures and invalid
// records become diagnostics; the pass always completes with whatever input
// was usable. Later sources override earlier ones field-by-field on name
// match (last-writer-wins per field, not per record).
func (n *Normalizer) Ingest(ctx context.Context, sources ...Source) PassResult {
	result := PassResult{
		BatchID:          uuid.NewString(),
		Records:          n.records,
		IngestedBySource: make(map[string]int),
	}
	seen := make(map[string]bool)

	for _, src := range sources {
		raws, err := src.Fetch(ctx)
		if err != nil {
			srcErr := &deposit.SourceUnavailableError{Source: src.Name(), Err: err}
			log.Warn().Err(srcErr).Str("source", src.Name()).Msg("ingestion source unavailable")
			result.Diagnostics = append(result.Diagnostics, deposit.Diagnostic{
				Source:   src.Name(),
				Severity: deposit.SeverityError,
				Reason:   srcErr.Error(),
			})
			continue
		}

		for _, raw := range raws {
			name, diags, ok := n.apply(raw)
			result.Diagnostics = append(result.Diagnostics, diags...)
			if !ok {
				result.Rejected++
				continue
			}
			seen[name] = true
			result.Ingested++
			result.IngestedBySource[src.Name()]++
		}
	}

	now := time.Now().UTC()
	for name, rec := range n.records {
		if seen[name] {
			rec.Stale = false
			rec.UpdatedAt = now
		} else {
			rec.Stale = true
		}
	}

	log.Info().
		Str("batch_id", result.BatchID).
		Int("ingested", result.Ingested).
		Int("rejected", result.Rejected).
		Int("records", len(n.records)).
		Msg("ingestion pass complete")

	return result
}

// update holds the parsed fields of one raw record. Only present fields
// override the existing record.
type update struct {
	lat, lon   *float64
	dims       map[string]float64
	owner      *string
	stake      *float64
	status     *deposit.Status
	resourceMt *float64
	treoGrade  *float64
	heavyREE   *float64
	uraniumPPM *float64
}

// apply validates one raw record and merges it into the record set. A
// validation failure drops the incoming record; any record built from
// earlier sources is left untouched.
func (n *Normalizer) apply(raw RawRecord) (string, []deposit.Diagnostic, bool) {
	name := strings.TrimSpace(raw.Fields["deposit_name"])
	if name == "" {
		return "", []deposit.Diagnostic{{
			Source:   string(raw.Source),
			Severity: deposit.SeverityError,
			Reason:   "record without deposit_name",
		}}, false
	}

	upd, diags, err := parseRaw(name, raw)
	if err != nil {
		diags = append(diags, deposit.Diagnostic{
			Deposit:  name,
			Source:   string(raw.Source),
			Severity: deposit.SeverityError,
			Reason:   err.Error(),
		})
		return name, diags, false
	}

	rec, exists := n.records[name]
	if !exists {
		rec = &deposit.Record{Name: name}
		n.records[name] = rec
	}

	if upd.lat != nil {
		rec.Latitude = *upd.lat
	}
	if upd.lon != nil {
		rec.Longitude = *upd.lon
	}
	for dim, v := range upd.dims {
		rec.SetDimension(dim, v)
	}
	if upd.owner != nil {
		rec.Owner = *upd.owner
	}
	if upd.stake != nil {
		rec.ChineseStakePct = *upd.stake
	}
	if upd.status != nil {
		if !rec.Status.CanTransition(*upd.status) {
			diags = append(diags, deposit.Diagnostic{
				Deposit:  name,
				Source:   string(raw.Source),
				Severity: deposit.SeverityWarning,
				Reason:   fmt.Sprintf("implausible status transition %s -> %s", rec.Status, *upd.status),
			})
		}
		rec.Status = *upd.status
	}
	if upd.resourceMt != nil {
		rec.ResourceMt = upd.resourceMt
	}
	if upd.treoGrade != nil {
		rec.TREOGradePct = upd.treoGrade
	}
	if upd.heavyREE != nil {
		rec.HeavyREEPct = upd.heavyREE
	}
	if upd.uraniumPPM != nil {
		rec.UraniumPPM = upd.uraniumPPM
	}

	if (upd.lat != nil || upd.lon != nil) && !n.bounds.Contains(rec.Latitude, rec.Longitude) {
		diags = append(diags, deposit.Diagnostic{
			Deposit:  name,
			Source:   string(raw.Source),
			Severity: deposit.SeverityWarning,
			Reason: fmt.Sprintf("coordinates (%.2f, %.2f) outside expected bounds",
				rec.Latitude, rec.Longitude),
		})
	}

	return name, diags, true
}

// parseRaw converts raw string fields into a typed update. The first
// out-of-range or malformed field fails the whole raw record.
func parseRaw(name string, raw RawRecord) (update, []deposit.Diagnostic, error) {
	upd := update{dims: make(map[string]float64)}
	var diags []deposit.Diagnostic

	var err error
	if upd.lat, err = optionalFloat(name, raw.Fields, "latitude"); err != nil {
		return upd, diags, err
	}
	if upd.lon, err = optionalFloat(name, raw.Fields, "longitude"); err != nil {
		return upd, diags, err
	}

	for _, dim := range deposit.DimensionOrder {
		v, err := optionalFloat(name, raw.Fields, dim)
		if err != nil {
			return upd, diags, err
		}
		if v == nil {
			continue
		}
		if *v < 0 || *v > 100 {
			return upd, diags, &deposit.ValidationError{
				Deposit: name,
				Field:   dim,
				Reason:  fmt.Sprintf("value %.1f outside [0,100]", *v),
			}
		}
		upd.dims[dim] = *v
	}

	if upd.stake, err = optionalFloat(name, raw.Fields, "chinese_stake_pct"); err != nil {
		return upd, diags, err
	}
	if upd.stake != nil && (*upd.stake < 0 || *upd.stake > 100) {
		return upd, diags, &deposit.ValidationError{
			Deposit: name,
			Field:   "chinese_stake_pct",
			Reason:  fmt.Sprintf("value %.1f outside [0,100]", *upd.stake),
		}
	}

	// Empty source fields count as null: they never override.
	if owner := strings.TrimSpace(raw.Fields["owner"]); owner != "" {
		upd.owner = &owner
	}

	if rawStatus, ok := raw.Fields["status"]; ok && strings.TrimSpace(rawStatus) != "" {
		status, recognized := deposit.ParseStatus(rawStatus)
		if !recognized {
			diags = append(diags, deposit.Diagnostic{
				Deposit:  name,
				Source:   string(raw.Source),
				Severity: deposit.SeverityWarning,
				Reason:   fmt.Sprintf("unrecognized status %q", rawStatus),
			})
		}
		upd.status = &status
	}

	if upd.resourceMt, err = optionalFloat(name, raw.Fields, "resource_mt"); err != nil {
		return upd, diags, err
	}
	if upd.treoGrade, err = optionalFloat(name, raw.Fields, "treo_grade_pct"); err != nil {
		return upd, diags, err
	}
	if upd.heavyREE, err = optionalFloat(name, raw.Fields, "heavy_ree_pct"); err != nil {
		return upd, diags, err
	}
	if upd.uraniumPPM, err = optionalFloat(name, raw.Fields, "uranium_ppm"); err != nil {
		return upd, diags, err
	}

	return upd, diags, nil
}

// optionalFloat parses a float field if present and non-empty.
func optionalFloat(name string, fields map[string]string, key string) (*float64, error) {
	raw, ok := fields[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, &deposit.ValidationError{
			Deposit: name,
			Field:   key,
			Reason:  fmt.Sprintf("malformed value %q", raw),
		}
	}
	return &v, nil
}
