// Package coordinator implements the phase coordinator (spec §4.G): it
// parses a job request, runs the requested phases against the blob store,
// and times each step.
package coordinator

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/allensuvorov/showsummaries/internal/audiencereduce"
	"github.com/allensuvorov/showsummaries/internal/engineerr"
)

// Phase tokens recognized in a job request.
const (
	PhaseDailies    = "dailies"
	PhaseAggregates = "aggregates"
	PhaseAudience   = "audience"
)

// RawRequest is the data shape the out-of-scope HTTP worker shell /
// job-queue dispatcher hands the coordinator. Everything about routing,
// auth, and dispatch lives upstream of this struct.
type RawRequest struct {
	OperationKind string
	TargetPath    string
	Parameters    map[string]string
}

// wantOperationKind and wantTargetPath are the only recognized job shape;
// anything else is InvalidInput before any I/O.
const (
	wantOperationKind = "update"
	wantTargetPath    = "/work/recompute-show-summaries"
)

// Request is the parsed, validated form of a RawRequest.
type Request struct {
	ShowUUID   uuid.UUID
	Month      string // YYYY-MM
	Phases     []string
	StartDay   int // 1-indexed day of month; 0 means "unset"
	MaxDays    int // 0 means "process none"; unset means "no upper bound"
	HasMaxDays bool
	Sequential bool
	Log        bool
}

// AudiencePart returns the Part{} that should be passed to the audience
// reducer for this request, derived from any "audience-NofM" phase token.
// requested is false when no audience phase was requested at all.
func (r Request) AudiencePart() (part *audiencereduce.Part, requested bool) {
	for _, p := range r.Phases {
		if p == PhaseAudience {
			return nil, true
		}
		if strings.HasPrefix(p, PhaseAudience+"-") {
			n, m, ok := parsePartToken(strings.TrimPrefix(p, PhaseAudience+"-"))
			if ok {
				return &audiencereduce.Part{PartNum: n, NumParts: m}, true
			}
		}
	}
	return nil, false
}

// parsePartToken parses "1of4" into (1, 4, true).
func parsePartToken(token string) (partNum, numParts int, ok bool) {
	i := strings.Index(token, "of")
	if i < 0 {
		return 0, 0, false
	}
	n, err1 := strconv.Atoi(token[:i])
	m, err2 := strconv.Atoi(token[i+2:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, m, true
}

var defaultPhases = []string{PhaseDailies, PhaseAggregates, PhaseAudience}

// ParseRequest validates raw and returns the structured Request, failing
// fast (before any I/O) on anything malformed — bad operation/target,
// bad UUID, bad month, unrecognized phase token, or an unsupported
// audience-NofM partition count.
func ParseRequest(raw RawRequest) (Request, error) {
	const op = "coordinator.ParseRequest"

	if raw.OperationKind != wantOperationKind || raw.TargetPath != wantTargetPath {
		return Request{}, engineerr.New(op, engineerr.InvalidInput, nil)
	}

	showUUID, err := uuid.Parse(raw.Parameters["show"])
	if err != nil {
		return Request{}, engineerr.New(op, engineerr.InvalidInput, err)
	}

	month := raw.Parameters["month"]
	if !isValidMonth(month) {
		return Request{}, engineerr.New(op, engineerr.InvalidInput, nil)
	}

	phases := defaultPhases
	if raw.Parameters["phases"] != "" {
		phases = splitNonEmpty(raw.Parameters["phases"])
	}
	for _, p := range phases {
		if err := validatePhaseToken(p); err != nil {
			return Request{}, err
		}
	}

	req := Request{ShowUUID: showUUID, Month: month, Phases: phases}

	for _, f := range splitNonEmpty(raw.Parameters["flags"]) {
		switch f {
		case "log":
			req.Log = true
		case "sequential":
			req.Sequential = true
		}
	}

	if v, ok := raw.Parameters["startDay"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, engineerr.New(op, engineerr.InvalidInput, err)
		}
		req.StartDay = n
	}
	if v, ok := raw.Parameters["maxDays"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, engineerr.New(op, engineerr.InvalidInput, err)
		}
		req.MaxDays = n
		req.HasMaxDays = true
	}

	return req, nil
}

func validatePhaseToken(p string) error {
	const op = "coordinator.validatePhaseToken"
	switch {
	case p == PhaseDailies, p == PhaseAggregates, p == PhaseAudience:
		return nil
	case strings.HasPrefix(p, PhaseAudience+"-"):
		n, m, ok := parsePartToken(strings.TrimPrefix(p, PhaseAudience+"-"))
		if !ok || n < 1 || n > m {
			return engineerr.New(op, engineerr.InvalidInput, nil)
		}
		if err := audiencereduce.ValidateNumParts(m); err != nil {
			return err
		}
		return nil
	default:
		return engineerr.New(op, engineerr.InvalidInput, nil)
	}
}

func isValidMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	month := s[5:7]
	return month >= "01" && month <= "12"
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
