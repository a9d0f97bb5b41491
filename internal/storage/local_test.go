package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	key, size, err := store.Save(ctx, "Parts.XLSX", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, size)
	assert.True(t, strings.HasSuffix(key, ".xlsx"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadPolicyInspect(t *testing.T) {
	policy := UploadPolicy{MaxBytes: 1024, AllowedTypes: []string{"text/csv", "text/plain"}}

	content := "part,qty\nbolt,10\n"
	inspected, err := policy.Inspect(int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	body, err := io.ReadAll(inspected.Reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(body))

	_, err = policy.Inspect(0, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = policy.Inspect(4096, strings.NewReader(content))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	pdfOnly := UploadPolicy{AllowedTypes: []string{"application/pdf"}}
	_, err = pdfOnly.Inspect(int64(len(content)), strings.NewReader(content))
	assert.ErrorIs(t, err, ErrTypeNotAllowed)
}
