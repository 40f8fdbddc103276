package score

import (
	"time"

	"github.com/arcticwatch/reescan/internal/deposit"
)

// Snapshot is the full output of one scoring run: the ranked deposits, the
// ownership breakdown and the diagnostics explaining any exclusions. This is
// the structured payload handed to presentation layers.
type Snapshot struct {
	BatchID     string               `json:"batch_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Ranking     []RankedDeposit      `json:"ranking"`
	Summary     OwnershipSummary     `json:"summary"`
	Diagnostics []deposit.Diagnostic `json:"diagnostics,omitempty"`
}

// BuildSnapshot ranks the records and assembles the snapshot in one step.
func (e *Engine) BuildSnapshot(batchID string, records []*deposit.Record) Snapshot {
	ranking, diags := e.Rank(records)
	return Snapshot{
		BatchID:     batchID,
		GeneratedAt: time.Now().UTC(),
		Ranking:     ranking,
		Summary:     e.OwnershipSummary(records),
		Diagnostics: diags,
	}
}
