package audiencereduce

import (
	"strconv"

	"github.com/allensuvorov/showsummaries/internal/engineerr"
)

// Part identifies one shard of a hex-prefix partition over the
// audience-id space: PartNum is 1-indexed, NumParts is 4 or 8.
type Part struct {
	PartNum  int
	NumParts int
}

// hexThresholds4 gives the upper-bound hex digit (exclusive) for each of
// the four parts of a 4-way split: part 1 is [0,4), part 2 is [4,8), part
// 3 is [8,c), part 4 is [c,16).
var hexThresholds4 = []byte{'4', '8', 'c'}

// hexThresholds8 gives the seven interior boundaries of an 8-way split.
var hexThresholds8 = []byte{'2', '4', '6', '8', 'a', 'c', 'e'}

// linePartNum computes which 1-indexed part firstHexDigit falls into for
// the given NumParts (4 or 8), per spec §4.F's threshold table.
func linePartNum(firstHexDigit byte, numParts int) (int, error) {
	const op = "audiencereduce.linePartNum"
	var thresholds []byte
	switch numParts {
	case 4:
		thresholds = hexThresholds4
	case 8:
		thresholds = hexThresholds8
	default:
		return 0, engineerr.New(op, engineerr.InvalidInput, nil)
	}
	for i, t := range thresholds {
		if firstHexDigit < t {
			return i + 1, nil
		}
	}
	return len(thresholds) + 1, nil
}

// matches reports whether a line whose audience id starts with
// firstHexDigit belongs to p.
func (p Part) matches(firstHexDigit byte) (bool, error) {
	n, err := linePartNum(firstHexDigit, p.NumParts)
	if err != nil {
		return false, err
	}
	return n == p.PartNum, nil
}

// Label renders the part as the "NofM" string used in blob keys and the
// AudienceSummary.Part field.
func (p Part) Label() string {
	return strconv.Itoa(p.PartNum) + "of" + strconv.Itoa(p.NumParts)
}

// ValidateNumParts reports whether numParts is a supported partition
// count (4 or 8), matching §4.F's UnsupportedConfig failure mode.
func ValidateNumParts(numParts int) error {
	const op = "audiencereduce.ValidateNumParts"
	switch numParts {
	case 4, 8:
		return nil
	default:
		return engineerr.New(op, engineerr.InvalidInput, nil)
	}
}
