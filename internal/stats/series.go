package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

// Period selects the window of a focus series.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return p, nil
	case "":
		return PeriodWeek, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Series is focus time per bucket, in hours with one decimal.
type Series struct {
	Period Period    `json:"period"`
	Labels []string  `json:"labels"`
	Hours  []float64 `json:"hours"`
}

// FocusSeries buckets the minutes of work sessions by hour of today, by the
// last seven days, or by day of the current month. Bucketing uses local time.
func FocusSeries(sessions []store.Session, period Period, now time.Time) Series {
	now = now.Local()
	byDay := make(map[string]int)
	byHour := make([]int, 24)
	today := store.DateKey(now)

	for _, s := range sessions {
		if s.Type != store.SessionWork || s.Duration <= 0 {
			continue
		}
		start := s.StartTime.Local()
		day := store.DateKey(start)
		byDay[day] += s.Duration
		if day == today {
			byHour[start.Hour()] += s.Duration
		}
	}

	out := Series{Period: period}
	switch period {
	case PeriodToday:
		for h := range 24 {
			out.Labels = append(out.Labels, fmt.Sprintf("%d:00", h))
			out.Hours = append(out.Hours, toHours(byHour[h]))
		}
	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		days := first.AddDate(0, 1, -1).Day()
		for d := 1; d <= days; d++ {
			label := ""
			if d == 1 || d%5 == 0 || d == days {
				label = fmt.Sprintf("Day %d", d)
			}
			out.Labels = append(out.Labels, label)
			out.Hours = append(out.Hours, toHours(byDay[store.DateKey(first.AddDate(0, 0, d-1))]))
		}
	default:
		out.Period = PeriodWeek
		for i := 6; i >= 0; i-- {
			day := now.AddDate(0, 0, -i)
			out.Labels = append(out.Labels, day.Weekday().String()[:3])
			out.Hours = append(out.Hours, toHours(byDay[store.DateKey(day)]))
		}
	}
	return out
}

// FocusSeries builds a series from the stored sessions at the aggregator's clock.
func (a *Aggregator) FocusSeries(period Period) Series {
	return FocusSeries(a.store.Sessions(), period, a.now())
}

func toHours(minutes int) float64 {
	return math.Floor(float64(minutes)/6+0.5) / 10
}

// Trend compares today's focus minutes with yesterday's.
type Trend struct {
	Change int    `json:"change"` // percent
	Text   string `json:"text"`
}

func TrendFor(st store.Statistics, now time.Time) Trend {
	todayMin := st.DailyTotals[store.DateKey(now)]
	yesterdayMin := st.DailyTotals[store.DateKey(now.AddDate(0, 0, -1))]

	if yesterdayMin <= 0 {
		return Trend{Text: "+0% today"}
	}
	change := roundHalfUp(float64(todayMin-yesterdayMin) / float64(yesterdayMin) * 100)
	if change >= 0 {
		return Trend{Change: change, Text: fmt.Sprintf("+%d%% today", change)}
	}
	return Trend{Change: change, Text: fmt.Sprintf("%d%% today", change)}
}

func (a *Aggregator) Trend() Trend {
	return TrendFor(a.store.Statistics(), a.now())
}

// FormatFocusTime renders minutes as "1h 05m".
func FormatFocusTime(minutes int) string {
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
