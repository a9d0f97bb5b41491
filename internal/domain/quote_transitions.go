package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrSupplierFilesRequired  = errors.New("upload file first: supplier quote has no files")
	ErrQuoterFilesRequired    = errors.New("upload file first: final quote has no files")
	ErrSupplierQuoteConfirmed = errors.New("supplier quote already confirmed")
	ErrFinalQuoteConfirmed    = errors.New("final quote already confirmed")
	ErrAlreadyRejected        = errors.New("quote already rejected")
	ErrRejectReasonRequired   = errors.New("reject reason required")
	ErrFileIndexOutOfRange    = errors.New("file index out of range")
)

// Evidence is the remaining state a status has to be justified by.
type Evidence struct {
	SupplierFiles  bool
	AssignedGroups bool
	QuoterFiles    bool
}

// Evidence summarizes the quote's current files and assignments.
func (q *Quote) Evidence() Evidence {
	return Evidence{
		SupplierFiles:  len(q.SupplierFiles) > 0,
		AssignedGroups: len(q.AssignedGroups) > 0,
		QuoterFiles:    len(q.QuoterFiles) > 0,
	}
}

// FallbackStatus is the most advanced pre-final status the evidence supports.
func FallbackStatus(e Evidence) QuoteStatus {
	switch {
	case e.SupplierFiles:
		return QuoteStatusSupplierQuoted
	case e.AssignedGroups:
		return QuoteStatusInProgress
	default:
		return QuoteStatusPending
	}
}

// RegressedStatus returns the status a quote in current should hold once the
// evidence has shrunk. Statuses not gated on files are returned unchanged.
func RegressedStatus(current QuoteStatus, e Evidence) QuoteStatus {
	switch current {
	case QuoteStatusQuoted:
		if !e.QuoterFiles {
			return FallbackStatus(e)
		}
	case QuoteStatusSupplierQuoted:
		if !e.SupplierFiles {
			return QuoteStatusInProgress
		}
	}
	return current
}

func (q *Quote) transitionTo(next QuoteStatus) {
	q.Status = next
	if next != QuoteStatusRejected {
		q.RejectReason = nil
	}
}

func invalidTransition(from, to QuoteStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// MarkAssigned moves a pending quote to in_progress once a supplier or a
// supplier group is assigned. It reports whether the status changed.
func (q *Quote) MarkAssigned() bool {
	if q.Status != QuoteStatusPending {
		return false
	}
	if q.SupplierID == nil && len(q.AssignedGroups) == 0 {
		return false
	}
	q.transitionTo(QuoteStatusInProgress)
	return true
}

// ConfirmSupplierQuote records the supplier's confirmation.
func (q *Quote) ConfirmSupplierQuote() error {
	switch q.Status {
	case QuoteStatusSupplierQuoted:
		return ErrSupplierQuoteConfirmed
	case QuoteStatusInProgress, QuoteStatusRejected:
	default:
		return invalidTransition(q.Status, QuoteStatusSupplierQuoted)
	}
	if len(q.SupplierFiles) == 0 {
		return ErrSupplierFilesRequired
	}
	q.transitionTo(QuoteStatusSupplierQuoted)
	return nil
}

// Reject moves the quote to rejected with a mandatory reason.
func (q *Quote) Reject(reason string) error {
	reason = strings.TrimSpace(reason)
	switch q.Status {
	case QuoteStatusRejected:
		return ErrAlreadyRejected
	case QuoteStatusPending, QuoteStatusInProgress, QuoteStatusSupplierQuoted:
	default:
		return invalidTransition(q.Status, QuoteStatusRejected)
	}
	if reason == "" {
		return ErrRejectReasonRequired
	}
	q.transitionTo(QuoteStatusRejected)
	q.RejectReason = &reason
	return nil
}

// ConfirmFinalQuote records the quoter's final quote.
func (q *Quote) ConfirmFinalQuote() error {
	switch q.Status {
	case QuoteStatusQuoted:
		return ErrFinalQuoteConfirmed
	case QuoteStatusCancelled:
		return invalidTransition(q.Status, QuoteStatusQuoted)
	}
	if len(q.QuoterFiles) == 0 {
		return ErrQuoterFilesRequired
	}
	q.transitionTo(QuoteStatusQuoted)
	return nil
}

// Cancel withdraws the request. Quoted and cancelled quotes stay as they are.
func (q *Quote) Cancel() error {
	switch q.Status {
	case QuoteStatusPending, QuoteStatusInProgress, QuoteStatusRejected, QuoteStatusSupplierQuoted:
		q.transitionTo(QuoteStatusCancelled)
		return nil
	}
	return invalidTransition(q.Status, QuoteStatusCancelled)
}

// AppendFiles adds files to the end of the kind's sequence.
func (q *Quote) AppendFiles(kind FileKind, files ...QuoteFile) {
	q.setFiles(kind, append(q.Files(kind), files...))
}

// RemoveFile deletes the file at index and applies the regression rule.
func (q *Quote) RemoveFile(kind FileKind, index int) (QuoteFile, error) {
	files := q.Files(kind)
	if index < 0 || index >= len(files) {
		return QuoteFile{}, ErrFileIndexOutOfRange
	}
	removed := files[index]
	rest := make([]QuoteFile, 0, len(files)-1)
	rest = append(rest, files[:index]...)
	rest = append(rest, files[index+1:]...)
	q.setFiles(kind, rest)
	q.Status = RegressedStatus(q.Status, q.Evidence())
	return removed, nil
}

// ClearFiles deletes the whole sequence and applies the regression rule.
func (q *Quote) ClearFiles(kind FileKind) []QuoteFile {
	removed := q.Files(kind)
	q.setFiles(kind, []QuoteFile{})
	q.Status = RegressedStatus(q.Status, q.Evidence())
	return removed
}

// SetAssignedGroups replaces the supplier group set. Bulk reassignment never
// resets the status; an assignment on a pending quote starts work on it.
func (q *Quote) SetAssignedGroups(groupIDs []string) {
	q.AssignedGroups = dedupe(groupIDs)
	q.MarkAssigned()
}

// RemoveAssignedGroup drops one supplier group. When none remain the quote
// goes back to pending. It reports whether the group was assigned.
func (q *Quote) RemoveAssignedGroup(groupID string) bool {
	kept := make([]string, 0, len(q.AssignedGroups))
	found := false
	for _, id := range q.AssignedGroups {
		if id == groupID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return false
	}
	q.AssignedGroups = kept
	if len(kept) == 0 {
		q.transitionTo(QuoteStatusPending)
	}
	return true
}

// RemoveCustomerGroup drops a customer group tag. It reports whether the tag was present.
func (q *Quote) RemoveCustomerGroup(groupID string) bool {
	kept := make([]string, 0, len(q.CustomerGroups))
	found := false
	for _, id := range q.CustomerGroups {
		if id == groupID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	q.CustomerGroups = kept
	return found
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
