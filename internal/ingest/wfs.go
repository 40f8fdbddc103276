package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// featureCollection is the subset of a WFS GetFeature GeoJSON response the
// normalizer cares about: point coordinates plus flat properties. Geometry
// detail beyond the point location is ignored.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// WFSSource decodes a geospatial feature collection (GEUS WFS shaped). The
// fetch transport is the caller's concern; this source consumes a saved or
// piped response body.
type WFSSource struct {
	name string
	open func() (io.ReadCloser, error)
}

// NewWFSSource creates a feature source reading from a file path.
func NewWFSSource(path string) *WFSSource {
	return &WFSSource{
		name: path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewWFSReaderSource creates a feature source over an arbitrary reader.
func NewWFSReaderSource(name string, r io.Reader) *WFSSource {
	return &WFSSource{
		name: name,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

func (s *WFSSource) Name() string     { return s.name }
func (s *WFSSource) Type() SourceType { return SourceWFS }

// Fetch decodes the feature collection into raw records. Property values are
// stringified at the boundary; the normalizer owns typing and validation.
func (s *WFSSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var fc featureCollection
	if err := json.NewDecoder(rc).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected GeoJSON type %q", fc.Type)
	}

	records := make([]RawRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fields := make(map[string]string, len(f.Properties)+2)
		for key, value := range f.Properties {
			fields[key] = stringifyProperty(value)
		}
		// GeoJSON coordinate order is [lon, lat].
		if len(f.Geometry.Coordinates) >= 2 {
			fields["longitude"] = strconv.FormatFloat(f.Geometry.Coordinates[0], 'f', -1, 64)
			fields["latitude"] = strconv.FormatFloat(f.Geometry.Coordinates[1], 'f', -1, 64)
		}
		records = append(records, RawRecord{Source: SourceWFS, Fields: fields})
	}

	return records, nil
}

func stringifyProperty(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
