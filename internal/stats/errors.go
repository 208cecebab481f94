package stats

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidationError reports records that could not take part in an
// aggregation. It always travels alongside the partial result, so
// callers can keep the good data and surface the bad.
type ValidationError struct {
	// RecordIDs identifies the offending records, in input order.
	RecordIDs []string

	err error
}

func newValidationError() *ValidationError {
	return &ValidationError{}
}

func (ve *ValidationError) add(recordID, reason string) {
	ve.RecordIDs = append(ve.RecordIDs, recordID)
	ve.err = multierr.Append(ve.err, fmt.Errorf("record %s: %s", recordID, reason))
}

func (ve *ValidationError) empty() bool {
	return len(ve.RecordIDs) == 0
}

// orNil returns nil when no record was flagged, so callers can do a
// plain err != nil check.
func (ve *ValidationError) orNil() error {
	if ve.empty() {
		return nil
	}
	return ve
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%d invalid records: %s", len(ve.RecordIDs), ve.err)
}

func (ve *ValidationError) Unwrap() error {
	return ve.err
}

// ConfigurationError means the caller asked for a statistic with
// parameters that make no sense, like a non-positive window.
type ConfigurationError struct {
	Reason string
}

func (ce *ConfigurationError) Error() string {
	return "configuration error: " + ce.Reason
}
