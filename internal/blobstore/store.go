// Package blobstore abstracts the flat key→bytes object store the engine
// reads raw show-daily files from and writes derived summaries/audience
// blobs back to. It is the only persistence primitive the rest of the
// engine touches (see SPEC_FULL.md §4.A) — nothing else talks to disk,
// S3, or any other storage backend directly.
package blobstore

import (
	"context"
	"io"
)

// Mode selects the shape of a Get result.
type Mode int

const (
	// Text returns the body as a string, no ETag.
	Text Mode = iota
	// TextAndMeta returns the body as a string plus its ETag.
	TextAndMeta
	// Stream returns the body as a readable byte stream, no ETag. The
	// caller owns the stream and must close it.
	Stream
	// StreamAndMeta returns the body as a readable byte stream plus its
	// ETag. The caller owns the stream and must close it.
	StreamAndMeta
)

// Result is what Get returns for *-and-meta modes; for Text/Stream modes
// ETag is left empty and the caller should ignore it.
type Result struct {
	Text   string
	Stream io.ReadCloser
	ETag   string
}

// ListResult is the complete set of keys matching a prefix. The store
// contract guarantees this is never a partial page — callers never
// paginate.
type ListResult struct {
	Keys []string
}

// PutResult is returned by every successful write.
type PutResult struct {
	ETag string
}

// Store is the flat key→bytes object store contract. Every method may
// return an error classified by IsRetryableError; callers that want retry
// semantics (see the audience reducer, §4.F) consult that classifier
// rather than inspecting error strings.
type Store interface {
	// List returns every key under keyPrefix, in a single logical result.
	List(ctx context.Context, keyPrefix string) (ListResult, error)

	// Get fetches key in the given Mode. A missing key returns
	// (Result{}, false, nil) — not an error; callers distinguish "absent"
	// from "fetch failed" by the ok return.
	Get(ctx context.Context, key string, mode Mode) (result Result, ok bool, err error)

	// Put writes body (bytes or text) to key and returns its new ETag.
	Put(ctx context.Context, key string, body []byte) (PutResult, error)

	// PutStream writes exactly contentLength bytes read from r to key.
	// This is the fixed-length stream contract (§6): the caller declares
	// the length up front and the adapter rejects the write if the
	// stream doesn't match it byte-for-byte.
	PutStream(ctx context.Context, key string, r io.Reader, contentLength int64) (PutResult, error)

	// IsRetryableError classifies err as a transient storage fault
	// (worth retrying) or a durable one (auth, not-found, precondition —
	// retrying will never help).
	IsRetryableError(err error) bool
}
