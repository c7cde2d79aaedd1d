package summarymodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourBucketTruncatesToHour(t *testing.T) {
	assert.Equal(t, "2026-01-05T03", HourBucket("2026-01-05T03:45:12Z"))
}

func TestCompactTimestampStripsNonDigitsAndTruncates(t *testing.T) {
	assert.Equal(t, "202601050345120", CompactTimestamp("2026-01-05T03:45:12.0999Z"))
}

func TestExtractDateSuffixHandlesUUIDsWithInternalHyphens(t *testing.T) {
	key := "show-daily/11111111-1111-1111-1111-111111111111/11111111-1111-1111-1111-111111111111-2026-01-05"
	assert.Equal(t, "2026-01-05", ExtractDateSuffix(key, ""))
}

func TestExtractDateSuffixTrimsKnownSuffix(t *testing.T) {
	key := "audiences/show/abc/abc-2026-01-05.all.audience.txt"
	assert.Equal(t, "2026-01-05", ExtractDateSuffix(key, ".all.audience.txt"))
}

func TestAudiencePartLabelRendersUnpartitionedAsAll(t *testing.T) {
	assert.Equal(t, "all", AudiencePartLabel(""))
	assert.Equal(t, "2of4", AudiencePartLabel("2of4"))
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "show-daily/s/s-2026-01-05", DailyBlobKey("s", "2026-01-05"))
	assert.Equal(t, "summaries/show/s/s-2026-01.summary.json", SummaryBlobKey("s", "2026-01"))
	assert.Equal(t, "audiences/show/s/s-2026-01-05.all.audience.txt", DailyAudienceBlobKey("s", "2026-01-05"))
	assert.Equal(t, "audiences/show/s/s-2026-01.2of4.audience.txt", MonthlyAudienceBlobKey("s", "2026-01", "2of4"))
	assert.Equal(t, "audience-summaries/show/s/s-2026-01.all.audience-summary.json", AudienceSummaryBlobKey("s", "2026-01", ""))
}
