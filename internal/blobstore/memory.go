package blobstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// ErrContentLengthMismatch is returned by Memory.PutStream when the stream
// produced a different number of bytes than the caller declared.
var ErrContentLengthMismatch = errors.New("blobstore: stream did not match declared content length")

// ErrNotFound is not returned by any Memory method: Get reports missing
// keys via its ok return instead. IsRetryableError classifies it as
// non-retryable, like any error other than a simulated transient failure.
var ErrNotFound = errors.New("blobstore: key not found")

// Memory is an in-process Store backed by a mutex-guarded map. It is the
// default backend for tests and for local/dev runs of the CLI — there is
// no ecosystem library that belongs here: an in-memory fake store is a
// handful of map operations, not a concern any third-party package solves
// better than sync.RWMutex + map[string][]byte.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// failNext, when > 0, makes the next N Put/PutStream calls fail with
	// a transient-classified error before decrementing. Tests use this to
	// exercise the retry discipline in the audience reducer (property 8).
	failNext int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// FailNextPuts arranges for the next n Put/PutStream calls to fail with a
// retryable error. Exercised only by tests.
func (m *Memory) FailNextPuts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

type transientErr struct{ msg string }

func (e *transientErr) Error() string { return e.msg }

func (m *Memory) List(_ context.Context, keyPrefix string) (ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, keyPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return ListResult{Keys: keys}, nil
}

func (m *Memory) Get(_ context.Context, key string, mode Mode) (Result, bool, error) {
	m.mu.RLock()
	body, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Result{}, false, nil
	}

	etag := computeETag(body)
	switch mode {
	case Text:
		return Result{Text: string(body)}, true, nil
	case TextAndMeta:
		return Result{Text: string(body), ETag: etag}, true, nil
	case Stream:
		return Result{Stream: io.NopCloser(strings.NewReader(string(body)))}, true, nil
	case StreamAndMeta:
		return Result{Stream: io.NopCloser(strings.NewReader(string(body))), ETag: etag}, true, nil
	default:
		return Result{}, false, errors.New("blobstore: unknown mode")
	}
}

func (m *Memory) Put(_ context.Context, key string, body []byte) (PutResult, error) {
	if err := m.consumeFailure(); err != nil {
		return PutResult{}, err
	}
	cp := append([]byte(nil), body...)
	m.mu.Lock()
	m.objects[key] = cp
	m.mu.Unlock()
	return PutResult{ETag: computeETag(cp)}, nil
}

func (m *Memory) PutStream(_ context.Context, key string, r io.Reader, contentLength int64) (PutResult, error) {
	if err := m.consumeFailure(); err != nil {
		return PutResult{}, err
	}
	body, err := io.ReadAll(io.LimitReader(r, contentLength+1))
	if err != nil {
		return PutResult{}, err
	}
	if int64(len(body)) != contentLength {
		return PutResult{}, ErrContentLengthMismatch
	}
	m.mu.Lock()
	m.objects[key] = body
	m.mu.Unlock()
	return PutResult{ETag: computeETag(body)}, nil
}

func (m *Memory) IsRetryableError(err error) bool {
	var te *transientErr
	return errors.As(err, &te)
}

func (m *Memory) consumeFailure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext <= 0 {
		return nil
	}
	m.failNext--
	return &transientErr{msg: "blobstore: simulated transient failure"}
}

func computeETag(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}
