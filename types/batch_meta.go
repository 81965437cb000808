//nolint:revive // types is a common Go package naming convention
package types

import "errors"

// BatchMeta identifies one batch call for logging and reporting.
type BatchMeta struct {
	// BatchID is the batch identifier. Must be unique per call.
	BatchID string
	// Label is an optional caller-supplied tag (e.g. the picker session).
	Label *string
}

// Validate checks that the batch has an identity.
func (m *BatchMeta) Validate() error {
	if m.BatchID == "" {
		return errors.New("batch_id is required")
	}
	if m.Label != nil && *m.Label == "" {
		return errors.New("label must be non-empty when set")
	}
	return nil
}
