// Package dailycompute implements the daily computer (spec §4.D): reads
// one (show, date) raw TSV from the blob store, accumulates it into a
// ShowSummary plus a set of first-seen audience timestamps, and persists
// both back to the store.
package dailycompute

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/allensuvorov/showsummaries/internal/accumulate"
	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
	"github.com/allensuvorov/showsummaries/internal/tsvstream"
)

// Result is what ComputeShowSummaryForDate returns: the built summary
// and every distinct audience id's first-seen compact timestamp for this
// day, ready for SaveAudience.
type Result struct {
	Summary            summarymodel.ShowSummary
	AudienceTimestamps []summarymodel.AudienceLine
}

// ComputeShowSummaryForDate reads show-daily/<showUUID>/<showUUID>-<date>,
// accumulates every non-bot row, and returns the resulting ShowSummary and
// audience timestamps. It does not persist anything; call SaveShowSummary
// and SaveAudience on the result.
func ComputeShowSummaryForDate(ctx context.Context, store blobstore.Store, showUUID uuid.UUID, date string) (Result, error) {
	const op = "dailycompute.ComputeShowSummaryForDate"

	key := summarymodel.DailyBlobKey(showUUID.String(), date)
	res, ok, err := store.Get(ctx, key, blobstore.StreamAndMeta)
	if err != nil {
		return Result{}, engineerr.New(op, classifyStorageErr(store, err), err)
	}
	if !ok {
		return Result{}, engineerr.New(op, engineerr.MissingInput, nil)
	}
	defer res.Stream.Close()

	it, err := tsvstream.New(res.Stream)
	if err != nil {
		return Result{}, engineerr.New(op, engineerr.CorruptInput, err)
	}

	summary := summarymodel.NewShowSummary(showUUID.String(), date)
	summary.Sources[key] = res.ETag
	audience := newAudienceTimestamps()

	for it.Next() {
		rec := it.Record()
		r := parseRow(rec)

		if r.botType != "" {
			continue // bots are excluded from every dimension, entirely.
		}
		if !r.hasTime {
			return Result{}, engineerr.New(op, engineerr.CorruptInput, errMissingTime)
		}

		hour := summarymodel.HourBucket(r.time)
		accumulate.Increment(summary.HourlyDownloads, hour)

		if r.audienceID != "" {
			audience.recordIfAbsent(r.audienceID, summarymodel.CompactTimestamp(r.time))
		}

		if r.episodeID != "" {
			ep := summary.EnsureEpisode(r.episodeID)
			ep.FirstHour = accumulate.MinLex(ep.FirstHour, hour)
			accumulate.Increment(ep.HourlyDownloads, hour)
			summary.Episodes[r.episodeID] = ep
		}

		applyDimensions(&summary, r)
	}
	if err := it.Err(); err != nil {
		return Result{}, engineerr.New(op, engineerr.CorruptInput, err)
	}

	return Result{Summary: summary, AudienceTimestamps: audience.lines()}, nil
}

// applyDimensions bumps every dimension bucket the row qualifies for, per
// the dimension table in spec §4.D.
func applyDimensions(summary *summarymodel.ShowSummary, r row) {
	accumulate.Increment(summary.EnsureDimension("countryCode"), r.countryCode)

	if r.hasMetroCode && r.metroCode != "" {
		accumulate.Increment(summary.EnsureDimension("metroCode"), r.metroCode)
	}

	switch {
	case r.continentCode == "EU":
		accumulate.Increment(summary.EnsureDimension("euRegion"), regionLabel(r.regionName, r.countryCode))
	case r.continentCode == "AS":
		accumulate.Increment(summary.EnsureDimension("asRegion"), regionLabel(r.regionName, r.countryCode))
	case r.continentCode == "AF":
		accumulate.Increment(summary.EnsureDimension("afRegion"), regionLabel(r.regionName, r.countryCode))
	case (r.continentCode == "NA" || r.continentCode == "SA") && r.countryCode != "US" && r.countryCode != "CA":
		accumulate.Increment(summary.EnsureDimension("latamRegion"), regionLabel(r.regionName, r.countryCode))
	}

	if r.countryCode == "AU" || r.countryCode == "NZ" {
		accumulate.Increment(summary.EnsureDimension("auRegion"), regionLabel(r.regionName, r.countryCode))
	}
	if r.countryCode == "CA" {
		accumulate.Increment(summary.EnsureDimension("caRegion"), r.regionName)
	}

	switch r.agentType {
	case "app":
		accumulate.Increment(summary.EnsureDimension("appName"), r.agentName)
	case "browser":
		accumulate.Increment(summary.EnsureDimension("browserName"), r.agentName)
		if r.hasReferrerType && r.referrerType != "" {
			accumulate.Increment(summary.EnsureDimension("referrer"), r.referrerType+"."+r.referrerName)
		}
	case "library":
		accumulate.Increment(summary.EnsureDimension("libraryName"), r.agentName)
	}

	accumulate.Increment(summary.EnsureDimension("deviceType"), r.deviceType)
	accumulate.Increment(summary.EnsureDimension("deviceName"), r.deviceName)

	if r.tags != "" {
		tagBucket := summary.EnsureDimension("tag")
		for _, tok := range strings.Split(r.tags, ",") {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				accumulate.Increment(tagBucket, tok)
			}
		}
	}
}

func regionLabel(regionName, countryCode string) string {
	return regionName + ", " + countryCode
}

var errMissingTime = errors.New(`dailycompute: row has no "time" column`)

// SaveShowSummary writes summary to its canonical blob key.
func SaveShowSummary(ctx context.Context, store blobstore.Store, summary summarymodel.ShowSummary) error {
	const op = "dailycompute.SaveShowSummary"
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

// SaveAudience writes the daily audience blob (one line per distinct
// audience id, in first-insertion order) for (showUUID, date).
func SaveAudience(ctx context.Context, store blobstore.Store, showUUID uuid.UUID, date string, lines []summarymodel.AudienceLine) error {
	const op = "dailycompute.SaveAudience"
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(summarymodel.FormatAudienceLine(l.AudienceID, l.Timestamp))
	}
	key := summarymodel.DailyAudienceBlobKey(showUUID.String(), date)
	if _, err := store.Put(ctx, key, []byte(b.String())); err != nil {
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
