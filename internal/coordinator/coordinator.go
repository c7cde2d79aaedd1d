package coordinator

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allensuvorov/showsummaries/internal/audiencereduce"
	"github.com/allensuvorov/showsummaries/internal/blobstore"
	"github.com/allensuvorov/showsummaries/internal/dailycompute"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
	"github.com/allensuvorov/showsummaries/internal/monthlyaggregate"
	"github.com/allensuvorov/showsummaries/internal/runid"
	"github.com/allensuvorov/showsummaries/internal/summarymodel"
)

// Report is the coordinator's return value: per-step elapsed time, for
// observability, same spirit as the teacher handler timestamping its
// response at the moment it was built.
type Report struct {
	Times map[string]time.Duration
}

// Coordinator runs the phases of a validated Request against a Store.
// MaxConcurrency bounds how many daily computations run at once in the
// parallel (non-sequential) path; zero means unbounded.
type Coordinator struct {
	Store          blobstore.Store
	Logger         *slog.Logger
	MaxConcurrency int
}

// New returns a Coordinator. A nil logger falls back to slog.Default().
func New(store blobstore.Store, logger *slog.Logger, maxConcurrency int) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{Store: store, Logger: logger, MaxConcurrency: maxConcurrency}
}

// Run executes every phase in req.Phases, in the order dailies →
// aggregates → audience, regardless of the order phases were listed in
// the request (spec's control-flow diagram is fixed: G → D → E → F).
func (c *Coordinator) Run(ctx context.Context, req Request) (Report, error) {
	report := Report{Times: make(map[string]time.Duration)}
	runID := runid.New()

	wantsDailies := hasPhase(req.Phases, PhaseDailies)
	wantsAggregates := hasPhase(req.Phases, PhaseAggregates)
	part, wantsAudience := req.AudiencePart()

	var dailyKeys []string
	if wantsDailies || wantsAggregates {
		start := time.Now()
		listing, err := c.Store.List(ctx, summarymodel.DailyListPrefix(req.ShowUUID.String(), req.Month))
		report.Times["list-dailies"] = time.Since(start)
		if err != nil {
			return report, engineerr.New("coordinator.Run", classifyStorageErr(c.Store, err), err)
		}
		dailyKeys = listing.Keys
		sort.Strings(dailyKeys)
	}

	if wantsDailies {
		start := time.Now()
		if err := c.runDailies(ctx, req, filterDailyKeys(dailyKeys, req.StartDay, req.MaxDays, req.HasMaxDays)); err != nil {
			return report, err
		}
		report.Times["dailies"] = time.Since(start)
	}

	if wantsAggregates {
		start := time.Now()
		inputKeys := make([]string, len(dailyKeys))
		for i, k := range dailyKeys {
			date := summarymodel.ExtractDateSuffix(k, "")
			inputKeys[i] = summarymodel.SummaryBlobKey(req.ShowUUID.String(), date)
		}
		outputPeriod := req.Month
		if _, err := monthlyaggregate.ComputeShowSummaryAggregate(ctx, c.Store, req.ShowUUID.String(), outputPeriod, inputKeys); err != nil {
			return report, err
		}
		report.Times["aggregates"] = time.Since(start)
	}

	if wantsAudience {
		start := time.Now()
		if _, err := audiencereduce.RecomputeAudienceForMonth(ctx, c.Store, req.ShowUUID.String(), req.Month, part); err != nil {
			return report, err
		}
		report.Times["audience"] = time.Since(start)
	}

	if req.Log {
		c.Logger.Info("recompute finished",
			slog.String("runId", runID),
			slog.String("show", req.ShowUUID.String()),
			slog.String("month", req.Month),
			slog.Any("times", report.Times),
		)
	}

	return report, nil
}

// runDailies processes every key in keys: compute, then persist the
// resulting summary and audience blob concurrently. If req.Sequential,
// keys are processed one at a time; otherwise all run concurrently,
// bounded by MaxConcurrency.
func (c *Coordinator) runDailies(ctx context.Context, req Request, keys []string) error {
	g, gctx := errgroup.WithContext(ctx)
	if !req.Sequential && c.MaxConcurrency > 0 {
		g.SetLimit(c.MaxConcurrency)
	}

	for _, key := range keys {
		key := key
		work := func() error {
			date := summarymodel.ExtractDateSuffix(key, "")
			result, err := dailycompute.ComputeShowSummaryForDate(gctx, c.Store, req.ShowUUID, date)
			if err != nil {
				return err
			}

			inner, innerCtx := errgroup.WithContext(gctx)
			inner.Go(func() error {
				return dailycompute.SaveShowSummary(innerCtx, c.Store, result.Summary)
			})
			inner.Go(func() error {
				return dailycompute.SaveAudience(innerCtx, c.Store, req.ShowUUID, date, result.AudienceTimestamps)
			})
			return inner.Wait()
		}

		if req.Sequential {
			if err := work(); err != nil {
				return err
			}
			continue
		}
		g.Go(work)
	}

	if !req.Sequential {
		return g.Wait()
	}
	return nil
}

func hasPhase(phases []string, want string) bool {
	for _, p := range phases {
		if p == want {
			return true
		}
	}
	return false
}

// filterDailyKeys applies the startDay/maxDays window to the listed daily
// keys, per spec §4.G step 2: maxDays==0 keeps none; a set startDay keeps
// days d with startDay <= d <= startDay+maxDays-1 (open-ended upper bound
// if maxDays is unset); no startDay keeps everything (subject only to the
// maxDays==0 "none" rule).
func filterDailyKeys(keys []string, startDay, maxDays int, hasMaxDays bool) []string {
	if hasMaxDays && maxDays == 0 {
		return nil
	}

	var out []string
	for _, k := range keys {
		date := summarymodel.ExtractDateSuffix(k, "")
		day := dayOfMonth(date)
		if startDay > 0 {
			if day < startDay {
				continue
			}
			if hasMaxDays && day > startDay+maxDays-1 {
				continue
			}
		}
		out = append(out, k)
	}
	return out
}

// dayOfMonth extracts the DD integer from a YYYY-MM-DD string.
func dayOfMonth(date string) int {
	if len(date) != 10 {
		return 0
	}
	n, err := strconv.Atoi(date[8:10])
	if err != nil {
		return 0
	}
	return n
}

func classifyStorageErr(store blobstore.Store, err error) engineerr.Kind {
	if store.IsRetryableError(err) {
		return engineerr.TransientStorage
	}
	return engineerr.DurableStorage
}
