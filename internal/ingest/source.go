// Package ingest normalizes heterogeneous deposit source records into
// canonical deposit.Record values. Batch operations collect diagnostics and
// never abort on a single bad record or unavailable source.
package ingest

import "context"

// SourceType tags where a raw record came from.
type SourceType string

const (
	// SourceDataset is the flat tabular dataset (CSV).
	SourceDataset SourceType = "dataset"
	// SourceWFS is a geospatial feature service feature collection.
	SourceWFS SourceType = "wfs"
	// SourceFilings is mining-company filings line items.
	SourceFilings SourceType = "filings"
)

// RawRecord is one untyped key-value record from a source. Values are kept
// as strings at the boundary; the normalizer rejects anything that does not
// map onto the canonical record.
type RawRecord struct {
	Source SourceType
	Fields map[string]string
}

// Source yields raw records for one ingestion pass. Transport concerns
// (HTTP, retries, timeouts) belong to the caller; sources here decode
// already-fetched payloads or local files.
type Source interface {
	Name() string
	Type() SourceType
	Fetch(ctx context.Context) ([]RawRecord, error)
}
