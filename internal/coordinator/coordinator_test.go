package coordinator

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
)

func seedDay(t *testing.T, store blobstore.Store, showUUID, date, tsv string) {
	t.Helper()
	key := summarymodel.DailyBlobKey(showUUID, date)
	_, err := store.Put(context.Background(), key, []byte(tsv))
	require.NoError(t, err)
}

func TestRunProcessesDailiesAggregatesAndAudience(t *testing.T) {
	store := blobstore.NewMemory()
	show := uuid.New()

	row := "time\taudienceId\n2026-01-%02dT03:00:00Z\t1111111111111111111111111111111111111111111111111111111111111a\n"
	seedDay(t, store, show.String(), "2026-01-01", fmt.Sprintf(row, 1))
	seedDay(t, store, show.String(), "2026-01-02", fmt.Sprintf(row, 2))

	c := New(store, nil, 0)
	req, err := ParseRequest(RawRequest{
		OperationKind: "update",
		TargetPath:    "/work/recompute-show-summaries",
		Parameters: map[string]string{
			"show":  show.String(),
			"month": "2026-01",
		},
	})
	require.NoError(t, err)

	report, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, report.Times, "dailies")
	assert.Contains(t, report.Times, "aggregates")
	assert.Contains(t, report.Times, "audience")

	_, ok, err := store.Get(context.Background(), summarymodel.SummaryBlobKey(show.String(), "2026-01"), blobstore.Text)
	require.NoError(t, err)
	assert.True(t, ok, "monthly aggregate summary must exist after Run")

	_, ok, err = store.Get(context.Background(), summarymodel.MonthlyAudienceBlobKey(show.String(), "2026-01", ""), blobstore.Text)
	require.NoError(t, err)
	assert.True(t, ok, "monthly audience blob must exist after Run")
}

func TestFilterDailyKeysAppliesStartDayAndMaxDaysWindow(t *testing.T) {
	keys := []string{
		"show-daily/x/x-2026-01-01",
		"show-daily/x/x-2026-01-02",
		"show-daily/x/x-2026-01-03",
		"show-daily/x/x-2026-01-04",
	}

	got := filterDailyKeys(keys, 2, 2, true)
	assert.Equal(t, []string{
		"show-daily/x/x-2026-01-02",
		"show-daily/x/x-2026-01-03",
	}, got)
}

func TestFilterDailyKeysMaxDaysZeroKeepsNone(t *testing.T) {
	keys := []string{"show-daily/x/x-2026-01-01"}
	got := filterDailyKeys(keys, 1, 0, true)
	assert.Nil(t, got)
}

func TestFilterDailyKeysNoWindowKeepsEverything(t *testing.T) {
	keys := []string{"show-daily/x/x-2026-01-01", "show-daily/x/x-2026-01-02"}
	got := filterDailyKeys(keys, 0, 0, false)
	assert.Equal(t, keys, got)
}
