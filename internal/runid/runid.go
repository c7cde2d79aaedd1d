// Package runid generates correlation ids for coordinator log lines, the
// same crypto/rand + hex idiom the teacher used for upload job ids.
package runid

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a 16-byte random hex string (32 hex chars), used to tie
// together every log line emitted during one Coordinator.Run call.
func New() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
