package runid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReturns32CharHexString(t *testing.T) {
	id := New()
	assert.Len(t, id, 32)
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}
}

func TestNewReturnsDistinctValues(t *testing.T) {
	assert.NotEqual(t, New(), New())
}
