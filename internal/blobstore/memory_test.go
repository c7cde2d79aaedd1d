package blobstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Put(ctx, "k1", []byte("hello"))
	require.NoError(t, err)

	res, ok, err := m.Get(ctx, "k1", TextAndMeta)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", res.Text)
	assert.NotEmpty(t, res.ETag)
}

func TestMemoryGetMissingKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	res, ok, err := m.Get(ctx, "missing", Text)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Result{}, res)
}

func TestMemoryListReturnsOnlyMatchingPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.Put(ctx, "show-daily/a/a-2026-01-01", []byte("x"))
	_, _ = m.Put(ctx, "show-daily/a/a-2026-01-02", []byte("x"))
	_, _ = m.Put(ctx, "show-daily/b/b-2026-01-01", []byte("x"))

	res, err := m.List(ctx, "show-daily/a/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"show-daily/a/a-2026-01-01", "show-daily/a/a-2026-01-02"}, res.Keys)
}

func TestMemoryPutStreamRejectsContentLengthMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.PutStream(ctx, "k", strings.NewReader("short"), 100)
	assert.ErrorIs(t, err, ErrContentLengthMismatch)
}

func TestMemoryPutStreamAcceptsMatchingLength(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	body := "exactly-ten"

	_, err := m.PutStream(ctx, "k", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	res, ok, err := m.Get(ctx, "k", Text)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, res.Text)
}

func TestMemoryFailNextPutsSimulatesTransientFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailNextPuts(2)

	_, err := m.Put(ctx, "k", []byte("a"))
	require.Error(t, err)
	assert.True(t, m.IsRetryableError(err))

	_, err = m.Put(ctx, "k", []byte("a"))
	require.Error(t, err)
	assert.True(t, m.IsRetryableError(err))

	_, err = m.Put(ctx, "k", []byte("a"))
	require.NoError(t, err)
}

func TestMemoryIsRetryableErrorRejectsUnrelatedErrors(t *testing.T) {
	m := NewMemory()
	assert.False(t, m.IsRetryableError(ErrNotFound))
	assert.False(t, m.IsRetryableError(nil))
}
