package summarymodel

import (
	"strings"
)

// HourBucket returns the 13-character "YYYY-MM-DDTHH" prefix of an
// ISO-8601 timestamp string. An input shorter than 13 characters is
// returned unchanged; the daily computer rejects a row as CorruptInput
// only when its "time" column is absent, not when it is short.
func HourBucket(isoTime string) string {
	if len(isoTime) < 13 {
		return isoTime
	}
	return isoTime[:13]
}

// CompactTimestamp drops every non-digit rune from isoTime and truncates
// the result to 15 characters ("YYYYMMDDhhmmssm"). Used to derive the
// audience-blob timestamp column from a raw ISO-8601 "time" value.
func CompactTimestamp(isoTime string) string {
	var b strings.Builder
	b.Grow(len(isoTime))
	for _, r := range isoTime {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 15 {
		s = s[:15]
	}
	return s
}

// DailyBlobKey is the key a daily computation reads its raw input from:
// show-daily/<uuid>/<uuid>-<date>.
func DailyBlobKey(showUUID, date string) string {
	return "show-daily/" + showUUID + "/" + showUUID + "-" + date
}

// DailyListPrefix is the prefix under which every raw show-daily blob for
// a given (showUUID, month) lives.
func DailyListPrefix(showUUID, month string) string {
	return "show-daily/" + showUUID + "/" + showUUID + "-" + month
}

// SummaryBlobKey is the key a ShowSummary for (showUUID, period) is
// persisted under.
func SummaryBlobKey(showUUID, period string) string {
	return "summaries/show/" + showUUID + "/" + showUUID + "-" + period + ".summary.json"
}

// DailyAudienceBlobKey is the key the daily computer writes its raw
// audience-id/timestamp lines under, for one (showUUID, date).
func DailyAudienceBlobKey(showUUID, date string) string {
	return "audiences/show/" + showUUID + "/" + showUUID + "-" + date + ".all.audience.txt"
}

// AudiencePartLabel renders "" (unpartitioned) as "all", or "NofM" for a
// sharded run.
func AudiencePartLabel(part string) string {
	if part == "" {
		return "all"
	}
	return part
}

// MonthlyAudienceBlobKey is the key the audience reducer writes its
// deduplicated monthly (optionally sharded) audience blob under.
func MonthlyAudienceBlobKey(showUUID, month, part string) string {
	return "audiences/show/" + showUUID + "/" + showUUID + "-" + month + "." + AudiencePartLabel(part) + ".audience.txt"
}

// AudienceSummaryBlobKey is the key the AudienceSummary JSON is written
// under, alongside the monthly audience blob.
func AudienceSummaryBlobKey(showUUID, month, part string) string {
	return "audience-summaries/show/" + showUUID + "/" + showUUID + "-" + month + "." + AudiencePartLabel(part) + ".audience-summary.json"
}

// DailyAudiencePrefix is the prefix under which every daily audience blob
// for a given (showUUID, month) lives, used to List() the inputs for the
// monthly audience reduction.
func DailyAudiencePrefix(showUUID, month string) string {
	return "audiences/show/" + showUUID + "/" + showUUID + "-" + month + "-"
}

// ExtractDateSuffix recovers the trailing "YYYY-MM-DD" date from a blob
// key shaped "<dir>/<uuid>-<date><suffix>". The uuid itself contains
// hyphens (8-4-4-4-12), so the date is always the last three hyphen-split
// groups once any trailing suffix is removed — never "everything after
// the last hyphen".
func ExtractDateSuffix(key, trimSuffix string) string {
	base := key
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, trimSuffix)
	parts := strings.Split(base, "-")
	if len(parts) >= 3 {
		return strings.Join(parts[len(parts)-3:], "-")
	}
	return base
}
