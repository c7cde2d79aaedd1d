// Package summarymodel defines the persisted shapes the recomputation
// engine reads and writes: ShowSummary, EpisodeSummary, and
// AudienceSummary (spec §3). All three are plain structs over
// map[string]T fields; both encoding/json and goccy/go-json sort string
// map keys before encoding, which is what gives invariant 5 (ascending
// key order, recursively) for free at marshal time.
package summarymodel

// PeriodOverall is the reserved period value for the show-wide episode
// roll-up maintained by the monthly aggregator's overall merge.
const PeriodOverall = "overall"

// EpisodeSummary is one episode's contribution within a ShowSummary.
type EpisodeSummary struct {
	HourlyDownloads map[string]int `json:"hourlyDownloads"`
	// FirstHour is the lexicographic (== chronological, for the fixed
	// "YYYY-MM-DDTHH" format) minimum hour bucket ever observed for this
	// episode within the enclosing period.
	FirstHour string `json:"firstHour"`
}

// NewEpisodeSummary returns an EpisodeSummary with an initialized map and
// no FirstHour yet recorded.
func NewEpisodeSummary() EpisodeSummary {
	return EpisodeSummary{HourlyDownloads: make(map[string]int)}
}

// ShowSummary is a roll-up for one (show, period). Period is either a date
// (YYYY-MM-DD), a month (YYYY-MM), or PeriodOverall.
type ShowSummary struct {
	ShowUUID        string                    `json:"showUuid"`
	Period          string                    `json:"period"`
	HourlyDownloads map[string]int            `json:"hourlyDownloads"`
	Episodes        map[string]EpisodeSummary `json:"episodes"`
	// DimensionDownloads is nil (omitted) for the overall summary, which
	// intentionally carries only per-episode FirstHour.
	DimensionDownloads map[string]map[string]int `json:"dimensionDownloads,omitempty"`
	// Sources records, for provenance, the ETag observed when each input
	// blob was read to build this summary.
	Sources map[string]string `json:"sources"`
}

// NewShowSummary returns a ShowSummary with every map initialized (never
// nil), so a freshly built summary serializes as `{}` rather than `null`
// for an empty dimension or episode set.
func NewShowSummary(showUUID, period string) ShowSummary {
	return ShowSummary{
		ShowUUID:        showUUID,
		Period:          period,
		HourlyDownloads: make(map[string]int),
		Episodes:        make(map[string]EpisodeSummary),
		Sources:         make(map[string]string),
	}
}

// EnsureDimension returns the bucket map for dimension, creating it (and
// the outer map, if this is the first dimension touched) on first use.
func (s *ShowSummary) EnsureDimension(dimension string) map[string]int {
	if s.DimensionDownloads == nil {
		s.DimensionDownloads = make(map[string]map[string]int)
	}
	bucket, ok := s.DimensionDownloads[dimension]
	if !ok {
		bucket = make(map[string]int)
		s.DimensionDownloads[dimension] = bucket
	}
	return bucket
}

// EnsureEpisode returns the EpisodeSummary for episodeID, or a fresh one if
// it is absent. A fresh summary is not added to s.Episodes; the caller
// stores the updated value back.
func (s *ShowSummary) EnsureEpisode(episodeID string) EpisodeSummary {
	ep, ok := s.Episodes[episodeID]
	if !ok {
		ep = NewEpisodeSummary()
	}
	return ep
}

// AudienceSummary is the month-scoped (optionally sharded) distinct
// audience roll-up written alongside each audience blob.
type AudienceSummary struct {
	ShowUUID string `json:"showUuid"`
	Period   string `json:"period"`
	// Part is e.g. "2of4"; empty when the reducer ran unpartitioned.
	Part string `json:"part,omitempty"`
	// DailyFoundAudience counts *accepted lines* per day (every line that
	// passed the shard filter), not distinct audience ids — unlike the
	// distinct-id count the audience reducer returns in Result.Audience.
	DailyFoundAudience map[string]int `json:"dailyFoundAudience"`
}

// NewAudienceSummary returns an AudienceSummary with its map initialized.
func NewAudienceSummary(showUUID, period, part string) AudienceSummary {
	return AudienceSummary{
		ShowUUID:           showUUID,
		Period:             period,
		Part:               part,
		DailyFoundAudience: make(map[string]int),
	}
}
