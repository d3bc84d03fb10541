package weekly_stats

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SevenDaysAscending(t *testing.T) {
	end := civil.Date{Year: 2024, Month: time.March, Day: 2}
	counts := map[civil.Date]int{
		{Year: 2024, Month: time.February, Day: 25}: 1,
		{Year: 2024, Month: time.February, Day: 29}: 3,
		{Year: 2024, Month: time.March, Day: 2}:     1,
		{Year: 2024, Month: time.February, Day: 1}:  4, // outside the window
	}

	log := Build(end, counts)
	require.Len(t, log.Days, WindowDays)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 25}, log.StartDate)
	assert.Equal(t, end, log.EndDate)

	wantCounts := []int{1, 0, 0, 0, 3, 0, 1}
	for i, day := range log.Days {
		assert.Equal(t, log.StartDate.AddDays(i), day.Date)
		assert.Equal(t, wantCounts[i], day.Count, "day %s", day.Date)
		assert.Equal(t, wantCounts[i] > 0, day.Completed, "day %s", day.Date)
	}
}

func TestBuild_NoEvents(t *testing.T) {
	log := Build(civil.Date{Year: 2024, Month: time.January, Day: 7}, nil)
	require.Len(t, log.Days, WindowDays)
	for _, day := range log.Days {
		assert.False(t, day.Completed)
		assert.Zero(t, day.Count)
	}
}

func TestBuildRange_InvertedRangeIsEmpty(t *testing.T) {
	days := BuildRange(
		civil.Date{Year: 2024, Month: time.January, Day: 7},
		civil.Date{Year: 2024, Month: time.January, Day: 1},
		nil,
	)
	assert.Empty(t, days)
}

func TestCountByDate_Timezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	times := []time.Time{
		time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC), // Jan 1 23:00 Tokyo
		time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC), // Jan 2 01:00 Tokyo
		time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), // Jan 2 05:00 Tokyo
	}

	counts := CountByDate(times, tokyo)
	assert.Equal(t, 1, counts[civil.Date{Year: 2024, Month: time.January, Day: 1}])
	assert.Equal(t, 2, counts[civil.Date{Year: 2024, Month: time.January, Day: 2}])

	counts = CountByDate(times, time.UTC)
	assert.Equal(t, 3, counts[civil.Date{Year: 2024, Month: time.January, Day: 1}])
}

func TestWeeklyDay_JSONDate(t *testing.T) {
	data, err := json.Marshal(WeeklyDay{Date: civil.Date{Year: 2024, Month: time.May, Day: 9}, Completed: true, Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-05-09","completed":true,"count":2}`, string(data))
}
