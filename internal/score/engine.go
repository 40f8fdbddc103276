// Package score implements the strategic scoring engine: a deterministic
// weighted composite over the five analytical lenses, deposit ranking, and
// ownership aggregates.
package score

import (
	"errors"
	"fmt"
	"sort"

	"github.com/arcticwatch/reescan/internal/deposit"
)

// DefaultChineseStakeThreshold classifies a deposit as Chinese-exposed when
// its documented Chinese stake exceeds this percentage.
const DefaultChineseStakeThreshold = 0.0

// Engine computes strategic scores. The weight allocation is fixed at
// construction; scoring is a pure function of its inputs, so an Engine is
// safe for concurrent use.
type Engine struct {
	weights   Weights
	threshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithChineseStakeThreshold overrides the ownership classification threshold.
func WithChineseStakeThreshold(pct float64) Option {
	return func(e *Engine) { e.threshold = pct }
}

// NewEngine creates a scoring engine with the given validated weights.
func NewEngine(weights Weights, opts ...Option) *Engine {
	e := &Engine{
		weights:   weights,
		threshold: DefaultChineseStakeThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's weight allocation.
func (e *Engine) Weights() Weights {
	return e.weights
}

// ComputeScore returns the weighted composite score for a complete record.
// With weights summing to 1.0 and every dimension in [0,100], the result is
// guaranteed to lie in [0,100]. Incomplete records fail with
// IncompleteRecordError naming the first missing dimension.
func (e *Engine) ComputeScore(rec *deposit.Record) (float64, error) {
	if dim, missing := rec.MissingDimension(); missing {
		return 0, &deposit.IncompleteRecordError{Deposit: rec.Name, Field: dim}
	}

	return *rec.Geological*e.weights.Geological +
		*rec.Regulatory*e.weights.Regulatory +
		*rec.Ownership*e.weights.Ownership +
		*rec.Infrastructure*e.weights.Infrastructure +
		*rec.Geopolitical*e.weights.Geopolitical, nil
}

// RankedDeposit pairs a record with its strategic score.
type RankedDeposit struct {
	Record   *deposit.Record  `json:"record"`
	Score    float64          `json:"score"`
	Category deposit.Category `json:"category"`
}

// Rank scores all complete records and sorts them descending by score, ties
// broken by deposit name ascending, so the order is total and reproducible.
// Incomplete records are excluded and reported in the diagnostics list.
func (e *Engine) Rank(records []*deposit.Record) ([]RankedDeposit, []deposit.Diagnostic) {
	ranked := make([]RankedDeposit, 0, len(records))
	var diags []deposit.Diagnostic

	for _, rec := range records {
		s, err := e.ComputeScore(rec)
		if err != nil {
			var incomplete *deposit.IncompleteRecordError
			if errors.As(err, &incomplete) {
				diags = append(diags, deposit.Diagnostic{
					Deposit:  rec.Name,
					Severity: SeverityForRankExclusion,
					Reason:   fmt.Sprintf("incomplete: %s", incomplete.Field),
				})
				continue
			}
			diags = append(diags, deposit.Diagnostic{
				Deposit:  rec.Name,
				Severity: deposit.SeverityError,
				Reason:   err.Error(),
			})
			continue
		}
		ranked = append(ranked, RankedDeposit{
			Record:   rec,
			Score:    s,
			Category: deposit.CategoryFor(s),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Record.Name < ranked[j].Record.Name
	})

	return ranked, diags
}

// SeverityForRankExclusion is the severity attached to incomplete-record
// diagnostics. Exclusion from ranking is expected, not fatal.
const SeverityForRankExclusion = deposit.SeverityWarning

// OwnershipSummary is the count-weighted ownership breakdown. The three
// percentages sum to 100 within floating tolerance for any non-empty input.
type OwnershipSummary struct {
	WesternPct float64 `json:"western_pct"`
	ChinesePct float64 `json:"chinese_pct"`
	UnknownPct float64 `json:"unknown_pct"`
}

// OwnershipSummary classifies each deposit once: Chinese when the documented
// stake exceeds the threshold, unknown when the owner field is unset,
// Western otherwise. An empty input yields the zero summary.
func (e *Engine) OwnershipSummary(records []*deposit.Record) OwnershipSummary {
	if len(records) == 0 {
		return OwnershipSummary{}
	}

	var western, chinese, unknown int
	for _, rec := range records {
		switch {
		case rec.ChineseStakePct > e.threshold:
			chinese++
		case !rec.OwnerKnown():
			unknown++
		default:
			western++
		}
	}

	total := float64(len(records))
	return OwnershipSummary{
		WesternPct: float64(western) / total * 100,
		ChinesePct: float64(chinese) / total * 100,
		UnknownPct: float64(unknown) / total * 100,
	}
}
