package deposit

import "fmt"

// ValidationError reports an out-of-range or malformed field on a source
// record. Validation failures are collected, never raised mid-batch.
type ValidationError struct {
	Deposit string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deposit %q field %s: %s", e.Deposit, e.Field, e.Reason)
}

// IncompleteRecordError reports a missing dimension score at scoring time.
type IncompleteRecordError struct {
	Deposit string
	Field   string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("deposit %q is incomplete: missing %s", e.Deposit, e.Field)
}

// SourceUnavailableError reports an ingestion source that could not be read.
// The batch continues with the remaining sources.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Diagnostic severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic is one collected per-record or per-source finding from a batch
// operation. Batch APIs return (results, diagnostics) pairs instead of
// aborting on the first bad record.
type Diagnostic struct {
	Deposit  string `json:"deposit,omitempty"`
	Source   string `json:"source,omitempty"`
	Severity string `json:"severity"`
	Reason   string `json:"reason"`
}

func (d Diagnostic) String() string {
	subject := d.Deposit
	if subject == "" {
		subject = d.Source
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, subject, d.Reason)
}
