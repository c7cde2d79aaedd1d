package dailycompute

import "github.com/allensuvorov/showsummaries/internal/tsvstream"

// row is a typed view over one tsvstream.Record, applying every default
// the dimension table in spec §4.D calls for. Fields that have no default
// stay as the empty string when absent, which is how "if present" and
// "condition" checks in the dimension table distinguish "not provided"
// from "explicitly set to the default value".
type row struct {
	time        string
	hasTime     bool
	episodeID   string
	audienceID  string
	botType     string
	countryCode string
	continentCode string
	regionName    string
	agentType     string
	agentName     string
	deviceType    string
	deviceName    string
	referrerType    string
	hasReferrerType bool
	referrerName    string
	metroCode    string
	hasMetroCode bool
	tags         string
}

func parseRow(rec tsvstream.Record) row {
	referrerType, hasReferrer := rec.Get("referrerType")
	metroCode, hasMetro := rec.Get("metroCode")
	timeVal, hasTime := rec.Get("time")

	return row{
		time:            timeVal,
		hasTime:         hasTime,
		episodeID:       rec.GetOr("episodeId", ""),
		audienceID:      rec.GetOr("audienceId", ""),
		botType:         rec.GetOr("botType", ""),
		countryCode:     rec.GetOr("countryCode", "XX"),
		continentCode:   rec.GetOr("continentCode", "XX"),
		regionName:      rec.GetOr("regionName", "Unknown"),
		agentType:       rec.GetOr("agentType", "unknown"),
		agentName:       rec.GetOr("agentName", "Unknown"),
		deviceType:      rec.GetOr("deviceType", "unknown"),
		deviceName:      rec.GetOr("deviceName", "Unknown"),
		referrerType:    referrerType,
		hasReferrerType: hasReferrer,
		referrerName:    rec.GetOr("referrerName", "Unknown"),
		metroCode:       metroCode,
		hasMetroCode:    hasMetro,
		tags:            rec.GetOr("tags", ""),
	}
}
