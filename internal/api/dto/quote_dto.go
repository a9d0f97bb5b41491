package dto

import (
	"time"

	"github.com/spec-kit/quote-service/internal/domain"
)

// QuoteCreateForm is the non-file part of the multipart create request.
// customer_groups is a comma separated list; absent means every active group.
type QuoteCreateForm struct {
	Title          string `form:"title" validate:"required,max=200"`
	Description    string `form:"description" validate:"max=5000"`
	CustomerGroups string `form:"customer_groups"`
}

// QuoteUpdateRequest carries optional changes.
type QuoteUpdateRequest struct {
	Title          *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string   `json:"description" validate:"omitempty,max=5000"`
	CustomerGroups *[]string `json:"customer_groups"`
}

// RejectRequest payload. The reason is checked again by the domain so that
// whitespace-only input is refused.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// AssignQuoterRequest lets an admin pick the quoter. An empty body claims
// the quote for the caller.
type AssignQuoterRequest struct {
	QuoterID string `json:"quoter_id"`
}

// AssignSupplierRequest sets or clears the individual supplier.
type AssignSupplierRequest struct {
	SupplierID *string `json:"supplier_id"`
}

// SetGroupsRequest replaces the assigned supplier groups.
type SetGroupsRequest struct {
	GroupIDs []string `json:"group_ids" validate:"dive,required"`
}

// QuoteFileResponse is file metadata without the storage key.
type QuoteFileResponse struct {
	Index        int       `json:"index"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   string    `json:"uploaded_by,omitempty"`
}

// QuoteResponse is a quote after role filtering.
type QuoteResponse struct {
	ID             string              `json:"id"`
	Number         string              `json:"number"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         domain.QuoteStatus  `json:"status"`
	CustomerID     string              `json:"customer_id"`
	QuoterID       *string             `json:"quoter_id,omitempty"`
	SupplierID     *string             `json:"supplier_id,omitempty"`
	AssignedGroups []string            `json:"assigned_groups,omitempty"`
	CustomerGroups []string            `json:"customer_groups"`
	CustomerFiles  []QuoteFileResponse `json:"customer_files"`
	SupplierFiles  []QuoteFileResponse `json:"supplier_files,omitempty"`
	QuoterFiles    []QuoteFileResponse `json:"quoter_files,omitempty"`
	RejectReason   *string             `json:"reject_reason,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewQuoteResponse maps an already filtered quote.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	customerGroups := q.CustomerGroups
	if customerGroups == nil {
		customerGroups = []string{}
	}
	return QuoteResponse{
		ID:             q.ID,
		Number:         q.Number,
		Title:          q.Title,
		Description:    q.Description,
		Status:         q.Status,
		CustomerID:     q.CustomerID,
		QuoterID:       q.QuoterID,
		SupplierID:     q.SupplierID,
		AssignedGroups: q.AssignedGroups,
		CustomerGroups: customerGroups,
		CustomerFiles:  fileResponses(q.CustomerFiles),
		SupplierFiles:  fileResponses(q.SupplierFiles),
		QuoterFiles:    fileResponses(q.QuoterFiles),
		RejectReason:   q.RejectReason,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func fileResponses(files []domain.QuoteFile) []QuoteFileResponse {
	out := make([]QuoteFileResponse, 0, len(files))
	for i, f := range files {
		out = append(out, QuoteFileResponse{
			Index:        i,
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			Size:         f.Size,
			MimeType:     f.MimeType,
			UploadedAt:   f.UploadedAt,
			UploadedBy:   f.UploadedBy,
		})
	}
	return out
}

// QuoteHistoryResponse is one audit trail entry.
type QuoteHistoryResponse struct {
	ID          string                 `json:"id"`
	ChangedByID *string                `json:"changed_by_id"`
	ChangedBy   domain.Role            `json:"changed_by_role"`
	ChangeType  domain.QuoteChangeType `json:"change_type"`
	OldValue    map[string]any         `json:"old_value,omitempty"`
	NewValue    map[string]any         `json:"new_value,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewQuoteHistoryResponse maps a history entry.
func NewQuoteHistoryResponse(h domain.QuoteHistory) QuoteHistoryResponse {
	return QuoteHistoryResponse{
		ID:          h.ID,
		ChangedByID: h.ChangedByID,
		ChangedBy:   h.ChangedBy,
		ChangeType:  h.ChangeType,
		OldValue:    h.OldValue,
		NewValue:    h.NewValue,
		CreatedAt:   h.CreatedAt,
	}
}
