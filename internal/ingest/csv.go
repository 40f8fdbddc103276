package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource decodes the flat tabular dataset. A header row is required;
// column order is irrelevant, names are exact.
type CSVSource struct {
	name    string
	srcType SourceType
	open    func() (io.ReadCloser, error)
}

// NewCSVSource creates a dataset source reading from a file path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		name:    path,
		srcType: SourceDataset,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewFilingsSource creates a filings source over the same tabular format,
// typically carrying only ownership and status columns.
func NewFilingsSource(path string) *CSVSource {
	s := NewCSVSource(path)
	s.srcType = SourceFilings
	return s
}

// NewCSVReaderSource creates a dataset source over an arbitrary reader.
func NewCSVReaderSource(name string, r io.Reader) *CSVSource {
	return &CSVSource{
		name:    name,
		srcType: SourceDataset,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

func (s *CSVSource) Name() string     { return s.name }
func (s *CSVSource) Type() SourceType { return s.srcType }

// Fetch reads and decodes every row. Decode-level failures (unreadable file,
// missing header) fail the whole source; per-row problems are left to the
// normalizer's validation.
func (s *CSVSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	hasName := false
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
		if columns[i] == "deposit_name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, fmt.Errorf("header missing required column deposit_name")
	}

	var records []RawRecord
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				fields[col] = row[i]
			}
		}
		records = append(records, RawRecord{Source: s.srcType, Fields: fields})
	}

	return records, nil
}
