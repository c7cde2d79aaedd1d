package dailycompute

import "github.com/allensuvorov/showsummaries/internal/summarymodel"

// audienceTimestamps tracks, in first-insertion order, the compact
// timestamp at which each distinct audience id was first observed during
// one daily computation. Insertion order matters because the audience
// blob is written "in insertion order" per spec invariant 6 and the daily
// audience file format.
type audienceTimestamps struct {
	order  []string
	values map[string]string
}

func newAudienceTimestamps() *audienceTimestamps {
	return &audienceTimestamps{values: make(map[string]string)}
}

// recordIfAbsent records ts for audienceID the first time it is seen;
// later calls for the same id are no-ops, matching "not already recorded".
func (a *audienceTimestamps) recordIfAbsent(audienceID, ts string) {
	if _, seen := a.values[audienceID]; seen {
		return
	}
	a.values[audienceID] = ts
	a.order = append(a.order, audienceID)
}

// lines renders every recorded (audienceID, timestamp) pair, in
// first-insertion order, as audience-blob records.
func (a *audienceTimestamps) lines() []summarymodel.AudienceLine {
	out := make([]summarymodel.AudienceLine, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, summarymodel.AudienceLine{AudienceID: id, Timestamp: a.values[id]})
	}
	return out
}
