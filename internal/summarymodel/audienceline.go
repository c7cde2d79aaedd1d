package summarymodel

// AudienceLineLength is the fixed width of one audience-blob line:
// 64 hex chars + 1 tab + 15 digit timestamp + 1 newline.
const AudienceLineLength = 64 + 1 + 15 + 1

// FormatAudienceLine renders one audience-blob record.
func FormatAudienceLine(audienceID, compactTimestamp string) string {
	return audienceID + "\t" + compactTimestamp + "\n"
}

// AudienceLine is a parsed, fixed-width audience-blob record.
type AudienceLine struct {
	AudienceID string
	Timestamp  string
}

// ParseAudienceLine extracts {audienceId, timestamp} from one line of a
// monthly or daily audience blob, per the "<64-hex><tab><15-digit>" shape.
// ok is false for a line too short to contain both fields.
func ParseAudienceLine(line string) (AudienceLine, bool) {
	if len(line) < 64+1+15 {
		return AudienceLine{}, false
	}
	return AudienceLine{
		AudienceID: line[0:64],
		Timestamp:  line[65:80],
	}, true
}
