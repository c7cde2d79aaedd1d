package accumulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrement(t *testing.T) {
	counts := map[string]int{}
	Increment(counts, "US")
	Increment(counts, "US")
	Increment(counts, "CA")
	assert.Equal(t, 2, counts["US"])
	assert.Equal(t, 1, counts["CA"])
}

func TestIncrementAllAddsWithoutMutatingSource(t *testing.T) {
	dest := map[string]int{"US": 1}
	src := map[string]int{"US": 2, "CA": 5}

	IncrementAll(dest, src)

	assert.Equal(t, 3, dest["US"])
	assert.Equal(t, 5, dest["CA"])
	assert.Equal(t, 2, src["US"])
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0, Total(map[string]int{}))
	assert.Equal(t, 6, Total(map[string]int{"a": 1, "b": 2, "c": 3}))
}

func TestMinLexEmptyStringLosesToAnyValue(t *testing.T) {
	assert.Equal(t, "2026-01-01T03", MinLex("", "2026-01-01T03"))
	assert.Equal(t, "2026-01-01T03", MinLex("2026-01-01T03", ""))
	assert.Equal(t, "", MinLex("", ""))
}

func TestMinLexPicksLexicographicallySmaller(t *testing.T) {
	assert.Equal(t, "2026-01-01T03", MinLex("2026-01-01T03", "2026-01-01T09"))
	assert.Equal(t, "2026-01-01T03", MinLex("2026-01-01T09", "2026-01-01T03"))
}
