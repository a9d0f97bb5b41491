package domain

import "time"

// QuoteChangeType captures what changed in a history entry.
type QuoteChangeType string

const (
	ChangeTypeStatus      QuoteChangeType = "STATUS_CHANGE"
	ChangeTypeQuoter      QuoteChangeType = "QUOTER_CHANGE"
	ChangeTypeSupplier    QuoteChangeType = "SUPPLIER_CHANGE"
	ChangeTypeGroups      QuoteChangeType = "GROUPS_CHANGE"
	ChangeTypeFileAdded   QuoteChangeType = "FILE_ADDED"
	ChangeTypeFileRemoved QuoteChangeType = "FILE_REMOVED"
)

// QuoteHistory is an immutable audit trail entry.
type QuoteHistory struct {
	ID          string
	QuoteID     string
	ChangedByID *string
	ChangedBy   Role
	ChangeType  QuoteChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
