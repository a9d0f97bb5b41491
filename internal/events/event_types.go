package events

import (
	"time"

	"github.com/spec-kit/quote-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventQuoteCreated        EventType = "quote_created"
	EventQuoteAssigned       EventType = "quote_assigned"
	EventQuoteStatusChanged  EventType = "quote_status_changed"
	EventQuoteFilesChanged   EventType = "quote_files_changed"
	EventQuoteQuoterAssigned EventType = "quote_quoter_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services. Quote is a snapshot
// taken after the change was persisted.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	QuoteID   string        `json:"quote_id"`
	Actor     Actor         `json:"actor"`
	Timestamp time.Time     `json:"timestamp"`
	Quote     *domain.Quote `json:"-"`
	Payload   interface{}   `json:"payload"`
}

// QuoteCreatedPayload payload.
type QuoteCreatedPayload struct {
	Number     string `json:"number"`
	Title      string `json:"title"`
	CustomerID string `json:"customer_id"`
}

// QuoteAssignedPayload lists only the newly added supplier targets.
type QuoteAssignedPayload struct {
	SupplierID  *string  `json:"supplier_id,omitempty"`
	AddedGroups []string `json:"added_groups,omitempty"`
}

// QuoteQuoterAssignedPayload payload.
type QuoteQuoterAssignedPayload struct {
	OldQuoterID *string `json:"old_quoter_id,omitempty"`
	NewQuoterID string  `json:"new_quoter_id"`
}

// QuoteStatusChangedPayload payload.
type QuoteStatusChangedPayload struct {
	OldStatus domain.QuoteStatus `json:"old_status"`
	NewStatus domain.QuoteStatus `json:"new_status"`
	Reason    string             `json:"reason,omitempty"`
}

// QuoteFilesChangedPayload payload.
type QuoteFilesChangedPayload struct {
	Kind    domain.FileKind `json:"kind"`
	Added   int             `json:"added"`
	Removed int             `json:"removed"`
}
