package archive

import "time"

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Calendar selects how "the previous day" is computed when walking a streak.
type Calendar int

const (
	// CalendarExact uses real calendar arithmetic.
	CalendarExact Calendar = iota
	// CalendarLegacy treats every month as 30 days long and ignores leap
	// years. Stats written by older releases were computed this way.
	CalendarLegacy
)

func (c Calendar) String() string {
	if c == CalendarLegacy {
		return "legacy"
	}
	return "exact"
}

// PrevDay returns the day before a "YYYY-MM-DD" key. ok is false when day
// does not parse.
func (c Calendar) PrevDay(day string) (string, bool) {
	if c != CalendarLegacy {
		t, err := time.Parse(dayLayout, day)
		if err != nil {
			return "", false
		}
		return t.AddDate(0, 0, -1).Format(dayLayout), true
	}

	y, m, d, ok := splitDay(day)
	if !ok {
		return "", false
	}
	switch {
	case d > 1:
		d--
	case m > 1:
		m, d = m-1, 30
	default:
		y, m, d = y-1, 12, 30
	}
	return formatDay(y, m, d), true
}

// splitDay parses "YYYY-MM-DD" without range checks on month or day.
func splitDay(day string) (y, m, d int, ok bool) {
	if len(day) != len(dayLayout) || day[4] != '-' || day[7] != '-' {
		return 0, 0, 0, false
	}
	y, ok1 := atoi(day[0:4])
	m, ok2 := atoi(day[5:7])
	d, ok3 := atoi(day[8:10])
	return y, m, d, ok1 && ok2 && ok3
}

func atoi(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// formatDay formats without normalizing, so legacy keys like "2024-02-30"
// survive.
func formatDay(y, m, d int) string {
	buf := []byte("0000-00-00")
	putDigits(buf[0:4], y)
	putDigits(buf[5:7], m)
	putDigits(buf[8:10], d)
	return string(buf)
}

func putDigits(dst []byte, n int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + n%10)
		n /= 10
	}
}

// CurrentStreak counts consecutive days ending at today that have at least
// one completion. A day without completions ends the walk, so a streak whose
// last entry is yesterday is 0 as of today.
func CurrentStreak(byDay map[string]int, today string, cal Calendar) int {
	streak := 0
	day := today
	for byDay[day] > 0 {
		streak++
		prev, ok := cal.PrevDay(day)
		if !ok {
			break
		}
		day = prev
	}
	return streak
}

// Record adds n completions on now's day and month and refreshes the streaks.
func (s *Stats) Record(n int, now time.Time, cal Calendar) {
	if n <= 0 {
		return
	}
	if s.CompletionsByDay == nil {
		s.CompletionsByDay = map[string]int{}
	}
	if s.CompletionsByMonth == nil {
		s.CompletionsByMonth = map[string]int{}
	}
	s.TotalCompleted += n
	s.CompletionsByDay[now.Format(dayLayout)] += n
	s.CompletionsByMonth[now.Format(monthLayout)] += n
	s.Refresh(now, cal)
}

// Refresh recomputes the current streak as of now and raises the longest
// streak when the current one exceeds it.
func (s *Stats) Refresh(now time.Time, cal Calendar) {
	s.CurrentStreak = CurrentStreak(s.CompletionsByDay, now.Format(dayLayout), cal)
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
}
