package dates

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for dates sent to the search API
const DateLayout = "2006-01-02"

// DatePair is one round-trip search: a departure date and its return date.
// Both are UTC midnight.
type DatePair struct {
	Departure time.Time `json:"departure"`
	Return    time.Time `json:"return"`
}

func (p DatePair) DepartureString() string { return p.Departure.Format(DateLayout) }
func (p DatePair) ReturnString() string    { return p.Return.Format(DateLayout) }

func (p DatePair) String() string {
	return fmt.Sprintf("%s -> %s", p.DepartureString(), p.ReturnString())
}

// MarshalText lets pairs be used as JSON object keys and log values
func (p DatePair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// WeekdayIndex converts Go's Sunday-based weekday to Monday=0 ... Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName returns the English name for a Monday-based index
func WeekdayName(idx int) string {
	if idx < 0 || idx > 6 {
		return ""
	}
	return weekdayNames[idx]
}

// WeekdayNames returns Monday..Sunday
func WeekdayNames() []string {
	return weekdayNames[:]
}

// ParseWeekday accepts a Monday-based index or an English day name ("wed", "Wednesday").
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return int(s[0] - '0'), nil
	}
	if len(s) >= 3 {
		for i, name := range weekdayNames {
			if strings.HasPrefix(strings.ToLower(name), s) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Enumerate returns every departure date between the first day of startMonth and the
// last day of endMonth whose Monday-based weekday is in allowed, paired with the date
// tripLength days later. Pairs whose return month number is after endMonth are dropped;
// only the month number is compared, so a December return rolling into January is kept.
func Enumerate(year, startMonth, endMonth int, allowed []int, tripLength int) []DatePair {
	pairs := []DatePair{}
	if startMonth < 1 || endMonth > 12 || startMonth > endMonth {
		return pairs
	}

	allow := [7]bool{}
	for _, d := range allowed {
		if d >= 0 && d <= 6 {
			allow[d] = true
		}
	}

	day := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the following month is the last day of endMonth
	last := time.Date(year, time.Month(endMonth)+1, 0, 0, 0, 0, 0, time.UTC)

	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !allow[WeekdayIndex(day)] {
			continue
		}
		ret := day.AddDate(0, 0, tripLength)
		if int(ret.Month()) > endMonth {
			continue
		}
		pairs = append(pairs, DatePair{Departure: day, Return: ret})
	}
	return pairs
}
