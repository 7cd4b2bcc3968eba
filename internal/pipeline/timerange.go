package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownTimeRange = errors.New("unknown time range")

// TimeRange selects how far back a snapshot looks
type TimeRange string

const (
	RangeToday   TimeRange = "today"
	RangeHour    TimeRange = "1h"
	Range6Hours  TimeRange = "6h"
	Range24Hours TimeRange = "24h"
	Range7Days   TimeRange = "7d"
	Range30Days  TimeRange = "30d"
)

var rangeDurations = map[TimeRange]time.Duration{
	RangeHour:    time.Hour,
	Range6Hours:  6 * time.Hour,
	Range24Hours: 24 * time.Hour,
	Range7Days:   7 * 24 * time.Hour,
	Range30Days:  30 * 24 * time.Hour,
}

// TimeRanges lists the accepted ranges in display order
var TimeRanges = []TimeRange{RangeToday, RangeHour, Range6Hours, Range24Hours, Range7Days, Range30Days}

func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(s)
	if r == RangeToday {
		return r, nil
	}
	if _, ok := rangeDurations[r]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeRange, s)
}

// windowStep aligns sliding window starts so a cached snapshot stays
// current for at most one step.
const windowStep = time.Minute

// Since returns the start of the window ending at now. "today" starts at
// midnight of now's calendar day in loc. Sliding windows start on a whole
// minute.
func (r TimeRange) Since(now time.Time, loc *time.Location) time.Time {
	if r == RangeToday {
		if loc == nil {
			loc = time.UTC
		}
		local := now.In(loc)
		y, m, d := local.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return now.Add(-rangeDurations[r]).Truncate(windowStep)
}
