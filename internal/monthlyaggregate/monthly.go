// Package monthlyaggregate implements the monthly aggregator (spec §4.E):
// sums a set of daily summaries into one month summary, persists it, and
// monotonically folds each episode's firstHour into the show's "overall"
// summary.
package monthlyaggregate

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/allensuvorov/showsummaries/internal/accumulate"
	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
)

// Result carries the written month summary plus whether the overall
// summary changed (and was therefore rewritten) as a result.
type Result struct {
	Summary        summarymodel.ShowSummary
	OverallChanged bool
}

// ComputeShowSummaryAggregate reads every key in inputKeys (silently
// skipping any that are missing — a partial month is valid), sums them
// into one summary at outputPeriod, saves it, and merges it into the
// show's overall episode-firsts summary.
func ComputeShowSummaryAggregate(ctx context.Context, store blobstore.Store, showUUID, outputPeriod string, inputKeys []string) (Result, error) {
	const op = "monthlyaggregate.ComputeShowSummaryAggregate"

	month := summarymodel.NewShowSummary(showUUID, outputPeriod)

	for _, key := range inputKeys {
		res, ok, err := store.Get(ctx, key, blobstore.TextAndMeta)
		if err != nil {
			return Result{}, engineerr.New(op, classifyStorageErr(store, err), err)
		}
		if !ok {
			continue // partial month: a missing daily input is not an error.
		}

		var daily summarymodel.ShowSummary
		if err := json.Unmarshal([]byte(res.Text), &daily); err != nil {
			return Result{}, engineerr.New(op, engineerr.CorruptInput, err)
		}

		accumulate.IncrementAll(month.HourlyDownloads, daily.HourlyDownloads)
		for dimension, buckets := range daily.DimensionDownloads {
			accumulate.IncrementAll(month.EnsureDimension(dimension), buckets)
		}
		for episodeID, dailyEp := range daily.Episodes {
			monthEp := month.EnsureEpisode(episodeID)
			accumulate.IncrementAll(monthEp.HourlyDownloads, dailyEp.HourlyDownloads)
			monthEp.FirstHour = accumulate.MinLex(monthEp.FirstHour, dailyEp.FirstHour)
			month.Episodes[episodeID] = monthEp
		}
		month.Sources[key] = res.ETag
	}

	if err := saveSummary(ctx, store, month); err != nil {
		return Result{}, err
	}

	changed, err := mergeOverall(ctx, store, showUUID, month)
	if err != nil {
		return Result{}, err
	}

	return Result{Summary: month, OverallChanged: changed}, nil
}

// mergeOverall folds month's per-episode firstHour into the show's overall
// summary, writing it back only if something actually changed (or no
// overall existed yet). The merge is monotone: overall's firstHour for an
// episode only ever moves earlier, never later.
func mergeOverall(ctx context.Context, store blobstore.Store, showUUID string, month summarymodel.ShowSummary) (bool, error) {
	const op = "monthlyaggregate.mergeOverall"

	key := summarymodel.SummaryBlobKey(showUUID, summarymodel.PeriodOverall)
	res, ok, err := store.Get(ctx, key, blobstore.Text)
	if err != nil {
		return false, engineerr.New(op, classifyStorageErr(store, err), err)
	}

	overall := summarymodel.NewShowSummary(showUUID, summarymodel.PeriodOverall)
	changed := !ok
	if ok {
		if err := json.Unmarshal([]byte(res.Text), &overall); err != nil {
			return false, engineerr.New(op, engineerr.CorruptInput, err)
		}
	}

	for episodeID, monthEp := range month.Episodes {
		existing, known := overall.Episodes[episodeID]
		if !known || monthEp.FirstHour < existing.FirstHour {
			overall.Episodes[episodeID] = summarymodel.EpisodeSummary{
				HourlyDownloads: map[string]int{},
				FirstHour:       monthEp.FirstHour,
			}
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	if err := saveSummary(ctx, store, overall); err != nil {
		return false, err
	}
	return true, nil
}

func saveSummary(ctx context.Context, store blobstore.Store, summary summarymodel.ShowSummary) error {
	const op = "monthlyaggregate.saveSummary"
	body, err := json.Marshal(summary)
	if err != nil {
		return engineerr.New(op, engineerr.CorruptInput, err)
	}
	key := summarymodel.SummaryBlobKey(summary.ShowUUID, summary.Period)
	if _, err := store.Put(ctx, key, body); err != nil {
		return engineerr.New(op, classifyStorageErr(store, err), err)
	}
	return nil
}

func classifyStorageErr(store blobstore.Store, err error) engineerr.Kind {
	if store.IsRetryableError(err) {
		return engineerr.TransientStorage
	}
	return engineerr.DurableStorage
}
