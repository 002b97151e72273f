package dates

import (
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekdayIndex(t *testing.T) {
	// 2026-04-06 is a Monday
	assert.Equal(t, 0, WeekdayIndex(day(2026, 4, 6)))
	assert.Equal(t, 2, WeekdayIndex(day(2026, 4, 1)))
	assert.Equal(t, 6, WeekdayIndex(day(2026, 4, 5)))
	assert.Equal(t, "Wednesday", WeekdayName(2))
	assert.Equal(t, "", WeekdayName(7))
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "6": 6, "wed": 2, "Thursday": 3, " sun ": 6} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"7", "we", "funday", ""} {
		_, err := ParseWeekday(in)
		assert.Error(t, err, in)
	}
}

func TestEnumerate_WednesdayThursdayAprToJun2026(t *testing.T) {
	pairs := Enumerate(2026, 4, 6, []int{2, 3}, 4)
	require.Len(t, pairs, 26)

	assert.Equal(t, day(2026, 4, 1), pairs[0].Departure)
	assert.Equal(t, day(2026, 4, 5), pairs[0].Return)
	assert.Equal(t, day(2026, 6, 25), pairs[len(pairs)-1].Departure)
	assert.Equal(t, day(2026, 6, 29), pairs[len(pairs)-1].Return)

	for i, p := range pairs {
		assert.Contains(t, []int{2, 3}, WeekdayIndex(p.Departure))
		assert.Equal(t, p.Departure.AddDate(0, 0, 4), p.Return)
		assert.LessOrEqual(t, int(p.Return.Month()), 6)
		if i > 0 {
			assert.True(t, pairs[i-1].Departure.Before(p.Departure))
		}
	}
}

func TestEnumerate_DropsReturnsPastEndMonth(t *testing.T) {
	// Tuesday 2026-06-30 + 4 days lands in July
	pairs := Enumerate(2026, 6, 6, []int{1}, 4)
	for _, p := range pairs {
		assert.NotEqual(t, day(2026, 6, 30), p.Departure)
	}
	assert.Equal(t, day(2026, 6, 23), pairs[len(pairs)-1].Departure)
}

func TestEnumerate_DecemberReturnIntoJanuaryIsKept(t *testing.T) {
	pairs := Enumerate(2026, 12, 12, []int{3}, 4)
	last := pairs[len(pairs)-1]
	assert.Equal(t, day(2026, 12, 31), last.Departure)
	assert.Equal(t, day(2027, 1, 4), last.Return)
}

func TestEnumerate_EmptyInputs(t *testing.T) {
	assert.Empty(t, Enumerate(2026, 6, 4, []int{2}, 4))
	assert.Empty(t, Enumerate(2026, 4, 6, nil, 4))
	assert.Empty(t, Enumerate(2026, 0, 6, []int{2}, 4))
}

func TestSample_GoldenThirteen(t *testing.T) {
	all := Enumerate(2026, 4, 6, []int{2, 3}, 4)
	got := Sample(all, 13)

	want := []time.Time{
		day(2026, 4, 1), day(2026, 4, 8), day(2026, 4, 15), day(2026, 4, 22), day(2026, 4, 29),
		day(2026, 5, 6), day(2026, 5, 13), day(2026, 5, 20), day(2026, 5, 27),
		day(2026, 6, 3), day(2026, 6, 10), day(2026, 6, 17), day(2026, 6, 24),
	}
	var departures []time.Time
	for _, p := range got {
		departures = append(departures, p.Departure)
	}
	if diff := deep.Equal(departures, want); diff != nil {
		t.Error(diff)
	}
}

func TestSample_NoOpWhenTargetCoversAll(t *testing.T) {
	all := Enumerate(2026, 4, 4, []int{2}, 4)
	assert.Equal(t, all, Sample(all, len(all)))
	assert.Equal(t, all, Sample(all, len(all)+10))
}

func TestSample_Bounds(t *testing.T) {
	all := Enumerate(2026, 1, 12, []int{4, 5}, 2)
	for target := 0; target <= len(all)+2; target++ {
		got := Sample(all, target)
		assert.LessOrEqual(t, len(got), target)
		assert.Equal(t, min(target, len(all)), len(got), "target %d", target)
	}
}

func TestSample_Deterministic(t *testing.T) {
	all := Enumerate(2026, 3, 8, []int{0, 4}, 3)
	first := Sample(all, 17)
	for i := 0; i < 5; i++ {
		assert.Nil(t, deep.Equal(first, Sample(all, 17)))
	}
}

func TestSample_ShortMonthRedistributes(t *testing.T) {
	// June has a single pair, April and May have plenty
	var all []DatePair
	for _, d := range []int{1, 3, 5, 7, 9, 11, 13, 15} {
		all = append(all, DatePair{Departure: day(2026, 4, d), Return: day(2026, 4, d+4)})
	}
	for _, d := range []int{2, 4, 6, 8, 10, 12} {
		all = append(all, DatePair{Departure: day(2026, 5, d), Return: day(2026, 5, d+4)})
	}
	all = append(all, DatePair{Departure: day(2026, 6, 1), Return: day(2026, 6, 5)})

	got := Sample(all, 9)
	require.Len(t, got, 9)

	perMonth := map[time.Month]int{}
	for _, p := range got {
		perMonth[p.Departure.Month()]++
	}
	assert.Equal(t, 1, perMonth[time.June])
	assert.Equal(t, 8, perMonth[time.April]+perMonth[time.May])
}

func TestTargetFor(t *testing.T) {
	assert.Equal(t, 3, TargetFor("conservative", 26))
	assert.Equal(t, 13, TargetFor("weekly", 26))
	assert.Equal(t, 24, TargetFor("Comprehensive", 26))
	assert.Equal(t, 26, TargetFor("complete", 26))
	assert.Equal(t, 13, TargetFor("unknown", 26))
	assert.Equal(t, 10, TargetFor("comprehensive", 10))
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, 50.0, Coverage(13, 26))
	assert.Equal(t, 33.3, Coverage(1, 3))
	assert.Equal(t, 0.0, Coverage(0, 0))
}
