package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name string) QuoteFile {
	return QuoteFile{Filename: name, OriginalName: name, Path: "key-" + name, Size: 10}
}

func strPtr(s string) *string { return &s }

func TestFallbackStatus(t *testing.T) {
	cases := []struct {
		name     string
		evidence Evidence
		want     QuoteStatus
	}{
		{"supplier files win", Evidence{SupplierFiles: true, AssignedGroups: true}, QuoteStatusSupplierQuoted},
		{"supplier files without groups", Evidence{SupplierFiles: true}, QuoteStatusSupplierQuoted},
		{"groups only", Evidence{AssignedGroups: true}, QuoteStatusInProgress},
		{"nothing left", Evidence{}, QuoteStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FallbackStatus(tc.evidence))
		})
	}
}

func TestRegressedStatus(t *testing.T) {
	assert.Equal(t, QuoteStatusQuoted, RegressedStatus(QuoteStatusQuoted, Evidence{QuoterFiles: true}))
	assert.Equal(t, QuoteStatusInProgress, RegressedStatus(QuoteStatusSupplierQuoted, Evidence{AssignedGroups: false}))
	assert.Equal(t, QuoteStatusSupplierQuoted, RegressedStatus(QuoteStatusSupplierQuoted, Evidence{SupplierFiles: true}))
	assert.Equal(t, QuoteStatusRejected, RegressedStatus(QuoteStatusRejected, Evidence{}))
	assert.Equal(t, QuoteStatusCancelled, RegressedStatus(QuoteStatusCancelled, Evidence{}))
}

func TestRemoveLastQuoterFileRollsBack(t *testing.T) {
	cases := []struct {
		name          string
		supplierFiles []QuoteFile
		groups        []string
		want          QuoteStatus
	}{
		{"to supplier_quoted", []QuoteFile{file("s.xlsx")}, []string{"g1"}, QuoteStatusSupplierQuoted},
		{"to in_progress", nil, []string{"g1"}, QuoteStatusInProgress},
		{"to pending", nil, nil, QuoteStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &Quote{
				Status:         QuoteStatusQuoted,
				SupplierFiles:  tc.supplierFiles,
				AssignedGroups: tc.groups,
				QuoterFiles:    []QuoteFile{file("final.pdf")},
			}
			removed, err := q.RemoveFile(FileKindQuoter, 0)
			require.NoError(t, err)
			assert.Equal(t, "final.pdf", removed.Filename)
			assert.Equal(t, tc.want, q.Status)
			assert.Empty(t, q.QuoterFiles)
		})
	}
}

func TestRemoveOneOfSeveralQuoterFilesKeepsQuoted(t *testing.T) {
	q := &Quote{Status: QuoteStatusQuoted, QuoterFiles: []QuoteFile{file("a"), file("b")}}
	_, err := q.RemoveFile(FileKindQuoter, 0)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusQuoted, q.Status)
	require.Len(t, q.QuoterFiles, 1)
	assert.Equal(t, "b", q.QuoterFiles[0].Filename)
}

func TestRemoveLastSupplierFile(t *testing.T) {
	q := &Quote{Status: QuoteStatusSupplierQuoted, SupplierFiles: []QuoteFile{file("s")}}
	_, err := q.RemoveFile(FileKindSupplier, 0)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusInProgress, q.Status)
}

func TestRemoveSupplierFileWhileQuotedKeepsQuoted(t *testing.T) {
	q := &Quote{Status: QuoteStatusQuoted, SupplierFiles: []QuoteFile{file("s")}, QuoterFiles: []QuoteFile{file("q")}}
	_, err := q.RemoveFile(FileKindSupplier, 0)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusQuoted, q.Status)
}

func TestRemoveFileOutOfRange(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending}
	_, err := q.RemoveFile(FileKindCustomer, 0)
	assert.ErrorIs(t, err, ErrFileIndexOutOfRange)
	_, err = q.RemoveFile(FileKindCustomer, -1)
	assert.ErrorIs(t, err, ErrFileIndexOutOfRange)
}

func TestClearFilesAppliesRegression(t *testing.T) {
	q := &Quote{
		Status:         QuoteStatusQuoted,
		AssignedGroups: []string{"g"},
		QuoterFiles:    []QuoteFile{file("a"), file("b")},
	}
	removed := q.ClearFiles(FileKindQuoter)
	assert.Len(t, removed, 2)
	assert.Equal(t, QuoteStatusInProgress, q.Status)
	assert.NotNil(t, q.QuoterFiles)
}

func TestConfirmSupplierQuote(t *testing.T) {
	q := &Quote{Status: QuoteStatusInProgress}
	assert.ErrorIs(t, q.ConfirmSupplierQuote(), ErrSupplierFilesRequired)
	assert.Equal(t, QuoteStatusInProgress, q.Status)

	q.AppendFiles(FileKindSupplier, file("price.xlsx"))
	require.NoError(t, q.ConfirmSupplierQuote())
	assert.Equal(t, QuoteStatusSupplierQuoted, q.Status)

	assert.ErrorIs(t, q.ConfirmSupplierQuote(), ErrSupplierQuoteConfirmed)
}

func TestConfirmSupplierQuoteFromRejectedClearsReason(t *testing.T) {
	q := &Quote{Status: QuoteStatusRejected, RejectReason: strPtr("too expensive"), SupplierFiles: []QuoteFile{file("s")}}
	require.NoError(t, q.ConfirmSupplierQuote())
	assert.Equal(t, QuoteStatusSupplierQuoted, q.Status)
	assert.Nil(t, q.RejectReason)
}

func TestConfirmSupplierQuoteInvalidFromPending(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending, SupplierFiles: []QuoteFile{file("s")}}
	assert.ErrorIs(t, q.ConfirmSupplierQuote(), ErrInvalidTransition)
}

func TestReject(t *testing.T) {
	for _, status := range []QuoteStatus{QuoteStatusPending, QuoteStatusInProgress, QuoteStatusSupplierQuoted} {
		q := &Quote{Status: status}
		assert.ErrorIs(t, q.Reject("   "), ErrRejectReasonRequired)
		assert.Equal(t, status, q.Status)

		require.NoError(t, q.Reject(" no capacity "))
		assert.Equal(t, QuoteStatusRejected, q.Status)
		require.NotNil(t, q.RejectReason)
		assert.Equal(t, "no capacity", *q.RejectReason)
	}

	rejected := &Quote{Status: QuoteStatusRejected}
	assert.ErrorIs(t, rejected.Reject("again"), ErrAlreadyRejected)

	quoted := &Quote{Status: QuoteStatusQuoted, QuoterFiles: []QuoteFile{file("q")}}
	assert.ErrorIs(t, quoted.Reject("late"), ErrInvalidTransition)
	assert.Equal(t, QuoteStatusQuoted, quoted.Status)
}

func TestConfirmFinalQuote(t *testing.T) {
	q := &Quote{Status: QuoteStatusSupplierQuoted, SupplierFiles: []QuoteFile{file("s")}}
	assert.ErrorIs(t, q.ConfirmFinalQuote(), ErrQuoterFilesRequired)
	assert.Equal(t, QuoteStatusSupplierQuoted, q.Status)

	q.AppendFiles(FileKindQuoter, file("final.pdf"))
	require.NoError(t, q.ConfirmFinalQuote())
	assert.Equal(t, QuoteStatusQuoted, q.Status)
	assert.ErrorIs(t, q.ConfirmFinalQuote(), ErrFinalQuoteConfirmed)

	cancelled := &Quote{Status: QuoteStatusCancelled, QuoterFiles: []QuoteFile{file("q")}}
	assert.ErrorIs(t, cancelled.ConfirmFinalQuote(), ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	q := &Quote{Status: QuoteStatusRejected, RejectReason: strPtr("x")}
	require.NoError(t, q.Cancel())
	assert.Equal(t, QuoteStatusCancelled, q.Status)
	assert.Nil(t, q.RejectReason)
	assert.ErrorIs(t, q.Cancel(), ErrInvalidTransition)
}

func TestAssignThenRemoveGroupReturnsToPending(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending}
	q.SetAssignedGroups([]string{"g1"})
	assert.Equal(t, QuoteStatusInProgress, q.Status)

	assert.True(t, q.RemoveAssignedGroup("g1"))
	assert.Equal(t, QuoteStatusPending, q.Status)
	assert.False(t, q.RemoveAssignedGroup("g1"))
}

func TestRemoveOneOfTwoGroupsKeepsStatus(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending}
	q.SetAssignedGroups([]string{"g1", "g2", "g1", " "})
	assert.Equal(t, []string{"g1", "g2"}, q.AssignedGroups)

	assert.True(t, q.RemoveAssignedGroup("g1"))
	assert.Equal(t, QuoteStatusInProgress, q.Status)
}

func TestBulkReassignToEmptyDoesNotReset(t *testing.T) {
	q := &Quote{Status: QuoteStatusInProgress, AssignedGroups: []string{"g1"}}
	q.SetAssignedGroups(nil)
	assert.Equal(t, QuoteStatusInProgress, q.Status)
	assert.Empty(t, q.AssignedGroups)
}

func TestMarkAssignedWithIndividualSupplier(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending}
	assert.False(t, q.MarkAssigned())
	q.SupplierID = strPtr("sup-1")
	assert.True(t, q.MarkAssigned())
	assert.Equal(t, QuoteStatusInProgress, q.Status)
}

// Walks the happy path and checks the file invariants hold at every step.
func TestLifecycleInvariants(t *testing.T) {
	q := &Quote{Status: QuoteStatusPending, CustomerFiles: []QuoteFile{file("rfq.xlsx")}}
	check := func() {
		t.Helper()
		if q.Status == QuoteStatusQuoted {
			assert.NotEmpty(t, q.QuoterFiles)
		}
		if q.Status == QuoteStatusSupplierQuoted {
			assert.NotEmpty(t, q.SupplierFiles)
		}
	}

	q.SetAssignedGroups([]string{"g1"})
	check()
	q.AppendFiles(FileKindSupplier, file("s.xlsx"))
	require.NoError(t, q.ConfirmSupplierQuote())
	check()
	q.AppendFiles(FileKindQuoter, file("final.pdf"))
	require.NoError(t, q.ConfirmFinalQuote())
	check()
	q.ClearFiles(FileKindSupplier)
	check()
	q.ClearFiles(FileKindQuoter)
	check()
	assert.Equal(t, QuoteStatusInProgress, q.Status)
}
