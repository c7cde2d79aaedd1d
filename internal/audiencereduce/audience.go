// Package audiencereduce implements the audience reducer (spec §4.F):
// scans a month's daily audience blobs, deduplicates audience ids (with
// optional hex-prefix sharding), and writes a fixed-length audience blob
// plus its AudienceSummary.
package audiencereduce

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
)

// maxPutRetries bounds the audience-blob write retry per spec §4.F: up to
// 2 retries (3 attempts total), retryable errors only.
const maxPutRetries = 2

// Result is what RecomputeAudienceForMonth returns for observability.
type Result struct {
	Audience      int
	ContentLength int64
	Part          string
}

// RecomputeAudienceForMonth lists every daily audience blob for
// (showUUID, month), optionally restricts to one hex-prefix shard, and
// writes the deduplicated monthly audience blob and its summary.
func RecomputeAudienceForMonth(ctx context.Context, store blobstore.Store, showUUID, month string, part *Part) (Result, error) {
	const op = "audiencereduce.RecomputeAudienceForMonth"

	if part != nil {
		if err := ValidateNumParts(part.NumParts); err != nil {
			return Result{}, err
		}
	}

	listing, err := store.List(ctx, summarymodel.DailyAudiencePrefix(showUUID, month))
	if err != nil {
		return Result{}, engineerr.New(op, classifyStorageErr(store, err), err)
	}

	var (
		order []string
		first = make(map[string]string)
		daily = summarymodel.NewAudienceSummary(showUUID, month, partLabel(part))
	)

	for _, key := range listing.Keys {
		date := summarymodel.ExtractDateSuffix(key, ".all.audience.txt")

		res, ok, err := store.Get(ctx, key, blobstore.Stream)
		if err != nil {
			return Result{}, engineerr.New(op, classifyStorageErr(store, err), err)
		}
		if !ok {
			continue
		}

		if err := scanDailyAudience(res.Stream, part, date, &order, first, daily.DailyFoundAudience); err != nil {
			res.Stream.Close()
			return Result{}, engineerr.New(op, engineerr.CorruptInput, err)
		}
		res.Stream.Close()
	}

	contentLength := int64(summarymodel.AudienceLineLength * len(order))

	audienceKey := summarymodel.MonthlyAudienceBlobKey(showUUID, month, partLabel(part))
	summaryKey := summarymodel.AudienceSummaryBlobKey(showUUID, month, partLabel(part))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return putAudienceBlobWithRetry(gctx, store, audienceKey, order, first, contentLength)
	})
	g.Go(func() error {
		body, err := json.Marshal(daily)
		if err != nil {
			return engineerr.New(op, engineerr.CorruptInput, err)
		}
		if _, err := store.Put(gctx, summaryKey, body); err != nil {
			return engineerr.New(op, classifyStorageErr(store, err), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{Audience: len(order), ContentLength: contentLength, Part: partLabel(part)}, nil
}

// scanDailyAudience reads one daily audience blob line by line, applying
// the shard filter (if any), and updates the shared first-seen tracking
// plus the per-day "lines found" counter.
func scanDailyAudience(r io.Reader, part *Part, date string, order *[]string, first map[string]string, dailyFound map[string]int) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parsed, ok := summarymodel.ParseAudienceLine(line)
		if !ok {
			continue
		}

		if part != nil {
			match, err := part.matches(parsed.AudienceID[0])
			if err != nil {
				return err
			}
			if !match {
				continue
			}
		}

		dailyFound[date]++

		if _, seen := first[parsed.AudienceID]; !seen {
			first[parsed.AudienceID] = parsed.Timestamp
			*order = append(*order, parsed.AudienceID)
		}
	}
	return sc.Err()
}

// putAudienceBlobWithRetry writes the monthly audience blob, retrying up
// to maxPutRetries times on retryable storage errors only (spec §4.F
// step 8). Durable errors are wrapped in backoff.Permanent so they abort
// immediately instead of burning the retry budget.
func putAudienceBlobWithRetry(ctx context.Context, store blobstore.Store, key string, order []string, first map[string]string, contentLength int64) error {
	const op = "audiencereduce.putAudienceBlobWithRetry"

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxPutRetries)
	policy = backoff.WithContext(policy, ctx)

	var lastKind engineerr.Kind
	operation := func() error {
		var b strings.Builder
		b.Grow(int(contentLength))
		for _, id := range order {
			b.WriteString(summarymodel.FormatAudienceLine(id, first[id]))
		}

		_, err := store.PutStream(ctx, key, strings.NewReader(b.String()), contentLength)
		if err == nil {
			return nil
		}
		if store.IsRetryableError(err) {
			lastKind = engineerr.TransientStorage
			return err
		}
		lastKind = engineerr.DurableStorage
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return engineerr.New(op, lastKind, err)
	}
	return nil
}

func partLabel(part *Part) string {
	if part == nil {
		return ""
	}
	return part.Label()
}

func classifyStorageErr(store blobstore.Store, err error) engineerr.Kind {
	if store.IsRetryableError(err) {
		return engineerr.TransientStorage
	}
	return engineerr.DurableStorage
}
