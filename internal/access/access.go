// Package access decides who may see or change a quote and which parts of it
// each role is shown. Every function here is pure: callers load the quote and
// a fully hydrated user (supplier groups and customer membership history)
// beforehand.
package access

import "github.com/spec-kit/quote-service/internal/domain"

var quoterEditable = map[domain.QuoteStatus]bool{
	domain.QuoteStatusPending:        true,
	domain.QuoteStatusInProgress:     true,
	domain.QuoteStatusSupplierQuoted: true,
}

var supplierCustomerFileStatuses = map[domain.QuoteStatus]bool{
	domain.QuoteStatusInProgress:     true,
	domain.QuoteStatusRejected:       true,
	domain.QuoteStatusSupplierQuoted: true,
	domain.QuoteStatusQuoted:         true,
}

var supplierWorkStatuses = map[domain.QuoteStatus]bool{
	domain.QuoteStatusInProgress:     true,
	domain.QuoteStatusRejected:       true,
	domain.QuoteStatusSupplierQuoted: true,
}

// IsOwner reports whether user created the quote.
func IsOwner(q *domain.Quote, user *domain.User) bool {
	return q != nil && user != nil && user.Role == domain.RoleCustomer && q.CustomerID == user.ID
}

// SharedWithCustomer reports whether a non-owning customer sees q through a
// customer group. Only the currently open interval counts, and only when it
// began at or before the quote was created.
func SharedWithCustomer(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil || user.Role != domain.RoleCustomer {
		return false
	}
	for _, groupID := range q.CustomerGroups {
		interval, ok := user.ActiveCustomerInterval(groupID)
		if ok && interval.CoversCreation(q.CreatedAt) {
			return true
		}
	}
	return false
}

// IsAssignedSupplier reports individual or group assignment of user to q.
func IsAssignedSupplier(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil || user.Role != domain.RoleSupplier {
		return false
	}
	if q.SupplierID != nil && *q.SupplierID == user.ID {
		return true
	}
	for _, groupID := range q.AssignedGroups {
		if user.InSupplierGroup(groupID) {
			return true
		}
	}
	return false
}

// CanView is the row-level read check.
func CanView(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil {
		return false
	}
	switch user.Role {
	case domain.RoleAdmin, domain.RoleQuoter:
		return true
	case domain.RoleCustomer:
		return IsOwner(q, user) || SharedWithCustomer(q, user)
	case domain.RoleSupplier:
		return IsAssignedSupplier(q, user)
	}
	return false
}

// CanEdit is the row-level check for changing quote details.
func CanEdit(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil {
		return false
	}
	switch user.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleQuoter:
		return quoterEditable[q.Status]
	case domain.RoleCustomer:
		return IsOwner(q, user)
	}
	return false
}

// CanDelete is the row-level check for removing a quote.
func CanDelete(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin || IsOwner(q, user)
}

// CanRoute reports whether user may change quoter, supplier or group
// assignment. Finished quotes are frozen for quoters.
func CanRoute(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil {
		return false
	}
	switch user.Role {
	case domain.RoleAdmin:
		return q.Status != domain.QuoteStatusCancelled
	case domain.RoleQuoter:
		return q.Status != domain.QuoteStatusCancelled && q.Status != domain.QuoteStatusQuoted
	}
	return false
}

// CanReadFiles reports whether user may list and download files of kind.
func CanReadFiles(q *domain.Quote, user *domain.User, kind domain.FileKind) bool {
	if !CanView(q, user) {
		return false
	}
	switch user.Role {
	case domain.RoleAdmin, domain.RoleQuoter:
		return true
	case domain.RoleCustomer:
		switch kind {
		case domain.FileKindCustomer:
			return true
		case domain.FileKindQuoter:
			return q.Status == domain.QuoteStatusQuoted
		}
	case domain.RoleSupplier:
		switch kind {
		case domain.FileKindCustomer:
			return supplierCustomerFileStatuses[q.Status]
		case domain.FileKindSupplier:
			return true
		}
	}
	return false
}

// CanWriteFiles reports whether user may upload to or delete from the kind's
// sequence. Each sequence is owned by one side of the exchange.
func CanWriteFiles(q *domain.Quote, user *domain.User, kind domain.FileKind) bool {
	if q == nil || user == nil {
		return false
	}
	switch kind {
	case domain.FileKindCustomer:
		if user.Role == domain.RoleAdmin {
			return true
		}
		return IsOwner(q, user) && q.Status != domain.QuoteStatusQuoted && q.Status != domain.QuoteStatusCancelled
	case domain.FileKindSupplier:
		if user.Role == domain.RoleAdmin {
			return true
		}
		return IsAssignedSupplier(q, user) && supplierWorkStatuses[q.Status]
	case domain.FileKindQuoter:
		if user.Role == domain.RoleAdmin {
			return true
		}
		return user.Role == domain.RoleQuoter && q.Status != domain.QuoteStatusCancelled
	}
	return false
}

// CanSupplierConfirm reports whether user may confirm the supplier quote.
func CanSupplierConfirm(q *domain.Quote, user *domain.User) bool {
	if user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin || IsAssignedSupplier(q, user)
}

// CanReject reports whether user may reject the quote.
func CanReject(q *domain.Quote, user *domain.User) bool {
	if q == nil || user == nil {
		return false
	}
	switch user.Role {
	case domain.RoleAdmin, domain.RoleQuoter:
		return true
	case domain.RoleSupplier:
		return IsAssignedSupplier(q, user)
	}
	return false
}

// CanFinalize reports whether user may confirm the final quote.
func CanFinalize(q *domain.Quote, user *domain.User) bool {
	return q != nil && user != nil && user.Role.IsStaff()
}

// CanCancel reports whether user may withdraw the request.
func CanCancel(q *domain.Quote, user *domain.User) bool {
	if user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin || IsOwner(q, user)
}

// Filter returns a copy of q holding only the fields the user's role may see.
// It runs on every response regardless of how the row-level check passed.
func Filter(q *domain.Quote, user *domain.User) *domain.Quote {
	if q == nil || user == nil {
		return nil
	}
	out := q.Clone()
	switch user.Role {
	case domain.RoleCustomer:
		out.QuoterID = nil
		out.SupplierID = nil
		out.AssignedGroups = nil
		out.SupplierFiles = nil
		if q.Status != domain.QuoteStatusQuoted {
			out.QuoterFiles = nil
		}
		for i := range out.QuoterFiles {
			out.QuoterFiles[i].UploadedBy = ""
		}
	case domain.RoleSupplier:
		out.QuoterID = nil
		out.QuoterFiles = nil
		if !supplierCustomerFileStatuses[q.Status] {
			out.CustomerFiles = nil
		}
	}
	return out
}
