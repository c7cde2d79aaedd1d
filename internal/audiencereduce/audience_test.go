package audiencereduce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
)

const idA = "111111111111111111111111111111111111111111111111111111111111111a" // first digit '1' -> 4-way part 1
const idB = "555555555555555555555555555555555555555555555555555555555555555b" // first digit '5' -> 4-way part 2

func seedDailyAudience(t *testing.T, store blobstore.Store, showUUID, date string, lines []summarymodel.AudienceLine) {
	t.Helper()
	var body []byte
	for _, l := range lines {
		body = append(body, []byte(summarymodel.FormatAudienceLine(l.AudienceID, l.Timestamp))...)
	}
	key := "audiences/show/" + showUUID + "/" + showUUID + "-" + date + ".all.audience.txt"
	_, err := store.Put(context.Background(), key, body)
	require.NoError(t, err)
}

func TestRecomputeAudienceForMonthDedupsAcrossDays(t *testing.T) {
	store := blobstore.NewMemory()
	show := "show-1"

	seedDailyAudience(t, store, show, "2026-01-01", []summarymodel.AudienceLine{
		{AudienceID: idA, Timestamp: "202601010300000"},
		{AudienceID: idB, Timestamp: "202601010400000"},
	})
	seedDailyAudience(t, store, show, "2026-01-02", []summarymodel.AudienceLine{
		{AudienceID: idA, Timestamp: "202601020300000"},
	})

	result, err := RecomputeAudienceForMonth(context.Background(), store, show, "2026-01", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Audience)
	assert.Equal(t, int64(summarymodel.AudienceLineLength*2), result.ContentLength)

	res, ok, err := store.Get(context.Background(), summarymodel.MonthlyAudienceBlobKey(show, "2026-01", ""), blobstore.Text)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int(result.ContentLength), len(res.Text))
}

func TestRecomputeAudienceForMonthShardFiltersAndCountsAcceptedLines(t *testing.T) {
	store := blobstore.NewMemory()
	show := "show-1"

	seedDailyAudience(t, store, show, "2026-01-01", []summarymodel.AudienceLine{
		{AudienceID: idA, Timestamp: "202601010300000"},
		{AudienceID: idB, Timestamp: "202601010400000"},
	})

	part := &Part{PartNum: 1, NumParts: 4}
	result, err := RecomputeAudienceForMonth(context.Background(), store, show, "2026-01", part)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Audience, "only idA's first-hex-digit falls in part 1 of 4")
	assert.Equal(t, "1of4", result.Part)

	res, ok, err := store.Get(context.Background(), summarymodel.AudienceSummaryBlobKey(show, "2026-01", "1of4"), blobstore.Text)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, res.Text, `"dailyFoundAudience":{"2026-01-01":1}`)
}

func TestRecomputeAudienceForMonthRejectsUnsupportedNumParts(t *testing.T) {
	store := blobstore.NewMemory()
	_, err := RecomputeAudienceForMonth(context.Background(), store, "show-1", "2026-01", &Part{PartNum: 1, NumParts: 3})
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.InvalidInput))
}

func TestPutAudienceBlobWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	store := blobstore.NewMemory()
	store.FailNextPuts(2)

	err := putAudienceBlobWithRetry(context.Background(), store, "k",
		[]string{idA}, map[string]string{idA: "202601010300000"}, int64(summarymodel.AudienceLineLength))
	require.NoError(t, err, "2 transient failures should be absorbed by the retry budget")
}

func TestPutAudienceBlobWithRetryGivesUpAfterExhaustingBudget(t *testing.T) {
	store := blobstore.NewMemory()
	store.FailNextPuts(3)

	err := putAudienceBlobWithRetry(context.Background(), store, "k",
		[]string{idA}, map[string]string{idA: "202601010300000"}, int64(summarymodel.AudienceLineLength))
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.TransientStorage))
}
