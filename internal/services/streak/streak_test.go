package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/magabrotheeeer/fitprogress/internal/models"
)

var day0 = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

func workoutOn(offsets ...int) []models.DailyProgress {
	res := make([]models.DailyProgress, 0, len(offsets))
	for _, o := range offsets {
		res = append(res, models.DailyProgress{Date: day0.AddDate(0, 0, o), WorkoutDone: true})
	}
	return res
}

func TestComputeStreak_TableTests(t *testing.T) {
	calc := NewCalculator(0, 0)

	tests := []struct {
		name     string
		records  []models.DailyProgress
		activity models.Activity
		asOf     time.Time
		want     int
	}{
		{
			name:     "gap breaks the streak",
			records:  workoutOn(0, 1, 2, 4),
			activity: models.ActivityWorkout,
			asOf:     day0.AddDate(0, 0, 4),
			want:     1,
		},
		{
			name:     "three consecutive days",
			records:  workoutOn(0, 1, 2, 4),
			activity: models.ActivityWorkout,
			asOf:     day0.AddDate(0, 0, 2),
			want:     3,
		},
		{
			name:     "anchor day without record",
			records:  workoutOn(0, 1, 2, 4),
			activity: models.ActivityWorkout,
			asOf:     day0.AddDate(0, 0, 3),
			want:     0,
		},
		{
			name:     "other activity not counted",
			records:  workoutOn(0, 1, 2),
			activity: models.ActivityDiet,
			asOf:     day0.AddDate(0, 0, 2),
			want:     0,
		},
		{
			name:     "time of day on asOf is ignored",
			records:  workoutOn(0, 1),
			activity: models.ActivityWorkout,
			asOf:     day0.AddDate(0, 0, 1).Add(23 * time.Hour),
			want:     2,
		},
		{
			name:     "no records",
			records:  nil,
			activity: models.ActivityWorkout,
			asOf:     day0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.ComputeStreak(tt.records, tt.activity, tt.asOf))
		})
	}
}

func TestComputeStreak_WindowBound(t *testing.T) {
	offsets := make([]int, 40)
	for i := range offsets {
		offsets[i] = i
	}
	records := workoutOn(offsets...)

	assert.Equal(t, 30, NewCalculator(0, 0).ComputeStreak(records, models.ActivityWorkout, day0.AddDate(0, 0, 39)))
	assert.Equal(t, 10, NewCalculator(10, 0).ComputeStreak(records, models.ActivityWorkout, day0.AddDate(0, 0, 39)))
}

func TestComputeCompletionPercentage_TableTests(t *testing.T) {
	calc := NewCalculator(0, 0)

	tests := []struct {
		name    string
		records []models.DailyProgress
		want    int
	}{
		{name: "empty", records: nil, want: 0},
		{name: "one flag rounds to 2", records: workoutOn(0), want: 2},
		{name: "both flags on one day", records: []models.DailyProgress{{Date: day0, WorkoutDone: true, DietFollowed: true}}, want: 3},
		{name: "fifteen full days is half", records: fullDays(15), want: 50},
		{name: "thirty full days", records: fullDays(30), want: 100},
		{name: "lifetime count is clamped", records: fullDays(45), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.ComputeCompletionPercentage(tt.records))
		})
	}
}

func fullDays(n int) []models.DailyProgress {
	res := make([]models.DailyProgress, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, models.DailyProgress{Date: day0.AddDate(0, 0, i), WorkoutDone: true, DietFollowed: true})
	}
	return res
}

func TestCalendar(t *testing.T) {
	calc := NewCalculator(3, 0)
	records := []models.DailyProgress{
		{Date: day0, WorkoutDone: true},
		{Date: day0.AddDate(0, 0, 2), DietFollowed: true},
		{Date: day0.AddDate(0, 0, 10), WorkoutDone: true},
	}

	cells := calc.Calendar(records, day0.AddDate(0, 0, 2))
	require.Len(t, cells, 3)
	assert.Equal(t, models.CalendarDay{Date: "2024-04-01", WorkoutDone: true}, cells[0])
	assert.Equal(t, models.CalendarDay{Date: "2024-04-02"}, cells[1])
	assert.Equal(t, models.CalendarDay{Date: "2024-04-03", DietFollowed: true}, cells[2])
}

func TestSummary(t *testing.T) {
	calc := NewCalculator(0, 0)
	s := calc.Summary(workoutOn(0, 1, 2, 4), day0.AddDate(0, 0, 2))

	assert.Equal(t, "2024-04-03", s.AsOf)
	assert.Equal(t, 3, s.WorkoutStreak)
	assert.Equal(t, 0, s.DietStreak)
	assert.Equal(t, 7, s.CompletionPercent)
	assert.Len(t, s.Calendar, 30)
}

func recordsGen() *rapid.Generator[[]models.DailyProgress] {
	return rapid.Custom(func(t *rapid.T) []models.DailyProgress {
		n := rapid.IntRange(0, 60).Draw(t, "n")
		res := make([]models.DailyProgress, 0, n)
		for i := 0; i < n; i++ {
			res = append(res, models.DailyProgress{
				Date:         day0.AddDate(0, 0, rapid.IntRange(0, 90).Draw(t, "offset")),
				WorkoutDone:  rapid.Bool().Draw(t, "workout"),
				DietFollowed: rapid.Bool().Draw(t, "diet"),
			})
		}
		return res
	})
}

func TestComputeStreak_Properties(t *testing.T) {
	calc := NewCalculator(0, 0)
	activities := []models.Activity{models.ActivityWorkout, models.ActivityDiet}

	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		activity := rapid.SampledFrom(activities).Draw(t, "activity")
		asOf := day0.AddDate(0, 0, rapid.IntRange(0, 90).Draw(t, "asOf"))

		got := calc.ComputeStreak(records, activity, asOf)

		if got < 0 || got > DefaultWindowDays {
			t.Fatalf("streak %d out of [0, %d]", got, DefaultWindowDays)
		}

		anchored := false
		for _, r := range records {
			if r.Date.Equal(asOf) && r.Flag(activity) {
				anchored = true
			}
		}
		if !anchored && got != 0 {
			t.Fatalf("streak %d without a flag on the anchor day", got)
		}

		// серия на день раньше ровно на единицу короче, если окно не обрезало её
		if got > 0 && got < DefaultWindowDays {
			prev := calc.ComputeStreak(records, activity, asOf.AddDate(0, 0, -1))
			if prev != got-1 {
				t.Fatalf("streak(asOf-1) = %d, want %d", prev, got-1)
			}
		}
	})
}

func TestComputeCompletionPercentage_Properties(t *testing.T) {
	calc := NewCalculator(0, 0)

	rapid.Check(t, func(t *rapid.T) {
		records := recordsGen().Draw(t, "records")
		before := calc.ComputeCompletionPercentage(records)
		if before < 0 || before > 100 {
			t.Fatalf("percentage %d out of [0, 100]", before)
		}

		extra := models.DailyProgress{
			Date:         day0.AddDate(0, 0, rapid.IntRange(0, 90).Draw(t, "extra")),
			WorkoutDone:  true,
			DietFollowed: rapid.Bool().Draw(t, "extraDiet"),
		}
		after := calc.ComputeCompletionPercentage(append(records, extra))
		if after < before {
			t.Fatalf("percentage decreased from %d to %d after adding a flag", before, after)
		}
	})
}
