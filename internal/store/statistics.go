package store

import "time"

func DefaultStatistics(now time.Time) Statistics {
	return Statistics{
		DailyTotals: map[string]int{},
		WeeklyGoal:  20,
		MonthlyGoal: 80,
		StartDate:   now.UTC(),
	}
}

func (s *Store) Statistics() Statistics {
	st := DefaultStatistics(s.now())
	s.getJSON(KeyStatistics, &st)
	if st.DailyTotals == nil {
		st.DailyTotals = map[string]int{}
	}
	return st
}

func (s *Store) SaveStatistics(st Statistics) bool {
	if st.DailyTotals == nil {
		st.DailyTotals = map[string]int{}
	}
	return s.putJSON(KeyStatistics, st)
}
