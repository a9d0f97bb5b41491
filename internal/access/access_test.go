package access_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/quote-service/internal/access"
	"github.com/spec-kit/quote-service/internal/domain"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

func ptr(s string) *string { return &s }

func customer(id string, intervals ...domain.MembershipInterval) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleCustomer, CustomerGroupMembership: intervals}
}

func open(groupID string, joined time.Time) domain.MembershipInterval {
	return domain.MembershipInterval{GroupID: groupID, JoinedAt: joined, IsActive: true}
}

func closed(groupID string, joined, left time.Time) domain.MembershipInterval {
	return domain.MembershipInterval{GroupID: groupID, JoinedAt: joined, LeftAt: &left}
}

func TestOwnerAlwaysSeesOwnQuote(t *testing.T) {
	owner := customer("c1")
	q := &domain.Quote{CustomerID: "c1", CustomerGroups: []string{"g"}, CreatedAt: at(0)}
	for _, status := range []domain.QuoteStatus{
		domain.QuoteStatusPending, domain.QuoteStatusQuoted, domain.QuoteStatusCancelled,
	} {
		q.Status = status
		assert.True(t, access.CanView(q, owner))
		assert.True(t, access.CanEdit(q, owner))
		assert.True(t, access.CanDelete(q, owner))
	}

	// Leaving every group does not matter for the owner.
	owner.CustomerGroupMembership = []domain.MembershipInterval{closed("g", at(-5), at(-1))}
	assert.True(t, access.CanView(q, owner))
}

func TestGroupVisibilityRespectsJoinTime(t *testing.T) {
	// C joins G at T1; Q1 was created at T0 < T1, Q2 at T2 > T1.
	t0, t1, t2 := at(0), at(1), at(2)
	viewer := customer("c", open("G", t1))
	q1 := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: t0}
	q2 := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: t2}

	assert.False(t, access.CanView(q1, viewer))
	assert.True(t, access.CanView(q2, viewer))
	assert.False(t, access.CanEdit(q2, viewer))
	assert.False(t, access.CanDelete(q2, viewer))
}

func TestJoinAtExactCreationTimeIsVisible(t *testing.T) {
	viewer := customer("c", open("G", at(3)))
	q := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: at(3)}
	assert.True(t, access.CanView(q, viewer))
}

func TestRejoinOpensNewCutoff(t *testing.T) {
	t1, t3 := at(1), at(3)
	// joined at T1, left at T2.5, rejoined at T3
	viewer := customer("c",
		closed("G", t1, at(2).Add(30*time.Minute)),
		open("G", t3),
	)
	between := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: at(2)}
	after := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: at(4)}

	assert.False(t, access.CanView(between, viewer))
	assert.True(t, access.CanView(after, viewer))
}

func TestFormerMemberLosesVisibility(t *testing.T) {
	viewer := customer("c", closed("G", at(0), at(5)))
	q := &domain.Quote{CustomerID: "other", CustomerGroups: []string{"G"}, CreatedAt: at(1)}
	assert.False(t, access.CanView(q, viewer))
}

func TestQuoteWithoutGroupTagIsPrivate(t *testing.T) {
	viewer := customer("c", open("G", at(0)))
	q := &domain.Quote{CustomerID: "other", CreatedAt: at(2)}
	assert.False(t, access.CanView(q, viewer))
}

func TestSupplierVisibility(t *testing.T) {
	sup := &domain.User{ID: "s1", Role: domain.RoleSupplier, SupplierGroups: []string{"SG"}}

	individual := &domain.Quote{SupplierID: ptr("s1"), Status: domain.QuoteStatusInProgress}
	viaGroup := &domain.Quote{AssignedGroups: []string{"SG"}, Status: domain.QuoteStatusInProgress}
	unrelated := &domain.Quote{AssignedGroups: []string{"other"}, Status: domain.QuoteStatusInProgress}

	assert.True(t, access.CanView(individual, sup))
	assert.True(t, access.CanView(viaGroup, sup))
	assert.False(t, access.CanView(unrelated, sup))
	assert.False(t, access.CanEdit(viaGroup, sup))
	assert.False(t, access.CanDelete(viaGroup, sup))
}

func TestSupplierCustomerFileWindow(t *testing.T) {
	sup := &domain.User{ID: "s1", Role: domain.RoleSupplier}
	q := &domain.Quote{SupplierID: ptr("s1")}

	allowed := map[domain.QuoteStatus]bool{
		domain.QuoteStatusPending:        false,
		domain.QuoteStatusInProgress:     true,
		domain.QuoteStatusRejected:       true,
		domain.QuoteStatusSupplierQuoted: true,
		domain.QuoteStatusQuoted:         true,
		domain.QuoteStatusCancelled:      false,
	}
	for status, want := range allowed {
		q.Status = status
		assert.Equal(t, want, access.CanReadFiles(q, sup, domain.FileKindCustomer), status)
	}
	q.Status = domain.QuoteStatusQuoted
	assert.False(t, access.CanReadFiles(q, sup, domain.FileKindQuoter))
}

func TestQuoterEditWindow(t *testing.T) {
	quoter := &domain.User{ID: "q", Role: domain.RoleQuoter}
	admin := &domain.User{ID: "a", Role: domain.RoleAdmin}
	editable := map[domain.QuoteStatus]bool{
		domain.QuoteStatusPending:        true,
		domain.QuoteStatusInProgress:     true,
		domain.QuoteStatusSupplierQuoted: true,
		domain.QuoteStatusRejected:       false,
		domain.QuoteStatusQuoted:         false,
		domain.QuoteStatusCancelled:      false,
	}
	for status, want := range editable {
		q := &domain.Quote{Status: status}
		assert.True(t, access.CanView(q, quoter))
		assert.Equal(t, want, access.CanEdit(q, quoter), status)
		assert.True(t, access.CanEdit(q, admin), status)
	}
}

func TestFilterForCustomer(t *testing.T) {
	q := &domain.Quote{
		CustomerID:     "c1",
		QuoterID:       ptr("q1"),
		SupplierID:     ptr("s1"),
		AssignedGroups: []string{"SG"},
		Status:         domain.QuoteStatusSupplierQuoted,
		CustomerFiles:  []domain.QuoteFile{{Filename: "rfq.xlsx"}},
		SupplierFiles:  []domain.QuoteFile{{Filename: "price.xlsx"}},
		QuoterFiles:    []domain.QuoteFile{{Filename: "final.pdf", UploadedBy: "q1"}},
	}
	c := customer("c1")

	out := access.Filter(q, c)
	assert.Nil(t, out.QuoterID)
	assert.Nil(t, out.SupplierID)
	assert.Empty(t, out.AssignedGroups)
	assert.Empty(t, out.SupplierFiles)
	assert.Empty(t, out.QuoterFiles)
	assert.Len(t, out.CustomerFiles, 1)

	// Original is untouched.
	assert.NotNil(t, q.QuoterID)
	assert.Len(t, q.SupplierFiles, 1)

	q.Status = domain.QuoteStatusQuoted
	out = access.Filter(q, c)
	require.Len(t, out.QuoterFiles, 1)
	assert.Empty(t, out.QuoterFiles[0].UploadedBy)
	assert.Equal(t, "q1", q.QuoterFiles[0].UploadedBy)
	assert.Empty(t, out.SupplierFiles)
}

func TestFilterForSupplier(t *testing.T) {
	q := &domain.Quote{
		QuoterID:      ptr("q1"),
		SupplierID:    ptr("s1"),
		Status:        domain.QuoteStatusQuoted,
		CustomerFiles: []domain.QuoteFile{{Filename: "rfq.xlsx"}},
		SupplierFiles: []domain.QuoteFile{{Filename: "price.xlsx"}},
		QuoterFiles:   []domain.QuoteFile{{Filename: "final.pdf"}},
	}
	sup := &domain.User{ID: "s1", Role: domain.RoleSupplier}

	out := access.Filter(q, sup)
	assert.Nil(t, out.QuoterID)
	assert.Empty(t, out.QuoterFiles)
	assert.NotNil(t, out.SupplierID)
	assert.Len(t, out.SupplierFiles, 1)
	assert.Len(t, out.CustomerFiles, 1)
}

func TestFilterForStaffKeepsEverything(t *testing.T) {
	q := &domain.Quote{QuoterID: ptr("q1"), SupplierID: ptr("s1"), QuoterFiles: []domain.QuoteFile{{}}, SupplierFiles: []domain.QuoteFile{{}}}
	out := access.Filter(q, &domain.User{Role: domain.RoleQuoter})
	assert.Equal(t, "q1", *out.QuoterID)
	assert.Len(t, out.QuoterFiles, 1)
	assert.Len(t, out.SupplierFiles, 1)
}

func TestWriteOwnership(t *testing.T) {
	owner := customer("c1")
	sup := &domain.User{ID: "s1", Role: domain.RoleSupplier}
	quoter := &domain.User{ID: "q1", Role: domain.RoleQuoter}
	q := &domain.Quote{CustomerID: "c1", SupplierID: ptr("s1"), Status: domain.QuoteStatusInProgress}

	assert.True(t, access.CanWriteFiles(q, owner, domain.FileKindCustomer))
	assert.False(t, access.CanWriteFiles(q, owner, domain.FileKindSupplier))
	assert.True(t, access.CanWriteFiles(q, sup, domain.FileKindSupplier))
	assert.False(t, access.CanWriteFiles(q, sup, domain.FileKindQuoter))
	assert.True(t, access.CanWriteFiles(q, quoter, domain.FileKindQuoter))
	assert.False(t, access.CanWriteFiles(q, quoter, domain.FileKindCustomer))

	q.Status = domain.QuoteStatusPending
	assert.False(t, access.CanWriteFiles(q, sup, domain.FileKindSupplier))
}
