package domain

import "time"

// QuoteStatus enumerates lifecycle states for quotes.
type QuoteStatus string

const (
	QuoteStatusPending        QuoteStatus = "pending"
	QuoteStatusInProgress     QuoteStatus = "in_progress"
	QuoteStatusSupplierQuoted QuoteStatus = "supplier_quoted"
	QuoteStatusRejected       QuoteStatus = "rejected"
	QuoteStatusQuoted         QuoteStatus = "quoted"
	QuoteStatusCancelled      QuoteStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusInProgress, QuoteStatusSupplierQuoted,
		QuoteStatusRejected, QuoteStatusQuoted, QuoteStatusCancelled:
		return true
	}
	return false
}

// FileKind names one of the three attachment sequences on a quote.
type FileKind string

const (
	FileKindCustomer FileKind = "customer"
	FileKindSupplier FileKind = "supplier"
	FileKindQuoter   FileKind = "quoter"
)

// Valid reports whether k is a known file kind.
func (k FileKind) Valid() bool {
	return k == FileKindCustomer || k == FileKindSupplier || k == FileKindQuoter
}

// QuoteFile stores metadata for an uploaded attachment. The bytes live in
// the file store under Path.
type QuoteFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   string    `json:"uploaded_by"`
}

// Quote is the aggregate for a customer's request for pricing.
type Quote struct {
	ID             string
	Number         string
	Title          string
	Description    string
	Status         QuoteStatus
	CustomerID     string
	QuoterID       *string
	SupplierID     *string
	AssignedGroups []string
	CustomerGroups []string
	CustomerFiles  []QuoteFile
	SupplierFiles  []QuoteFile
	QuoterFiles    []QuoteFile
	RejectReason   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Files returns the sequence for kind.
func (q *Quote) Files(kind FileKind) []QuoteFile {
	switch kind {
	case FileKindCustomer:
		return q.CustomerFiles
	case FileKindSupplier:
		return q.SupplierFiles
	case FileKindQuoter:
		return q.QuoterFiles
	}
	return nil
}

func (q *Quote) setFiles(kind FileKind, files []QuoteFile) {
	switch kind {
	case FileKindCustomer:
		q.CustomerFiles = files
	case FileKindSupplier:
		q.SupplierFiles = files
	case FileKindQuoter:
		q.QuoterFiles = files
	}
}

// HasAssignedGroup reports whether the supplier group is assigned.
func (q *Quote) HasAssignedGroup(groupID string) bool {
	return contains(q.AssignedGroups, groupID)
}

// HasCustomerGroup reports whether the quote is shared with the customer group.
func (q *Quote) HasCustomerGroup(groupID string) bool {
	return contains(q.CustomerGroups, groupID)
}

// Clone returns a deep copy safe to filter or mutate.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}
	c := *q
	c.QuoterID = clonePtr(q.QuoterID)
	c.SupplierID = clonePtr(q.SupplierID)
	c.RejectReason = clonePtr(q.RejectReason)
	c.AssignedGroups = append([]string(nil), q.AssignedGroups...)
	c.CustomerGroups = append([]string(nil), q.CustomerGroups...)
	c.CustomerFiles = append([]QuoteFile(nil), q.CustomerFiles...)
	c.SupplierFiles = append([]QuoteFile(nil), q.SupplierFiles...)
	c.QuoterFiles = append([]QuoteFile(nil), q.QuoterFiles...)
	return &c
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
