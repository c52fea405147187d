package recurrence

import "time"

// maxLookahead bounds Next; every rule type recurs within two years.
const maxLookahead = 731

// Normalize truncates t to its calendar date, expressed as midnight UTC.
// Dates are compared by their calendar fields, so the source location is kept
// only long enough to read year, month and day.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDates returns every date in the closed range [start, end] on which the
// rule is due, in ascending order. The result depends only on the rule and the
// range, so repeated calls produce identical output.
func DueDates(rule Rule, start, end time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	from, to := Normalize(start), Normalize(end)
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if rule.matches(d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// Next returns the first due date strictly after the given date.
func Next(rule Rule, after time.Time) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}

	d := Normalize(after)
	for range maxLookahead {
		d = d.AddDate(0, 0, 1)
		if rule.matches(d) {
			return d, nil
		}
	}
	return time.Time{}, ErrInvalidRule
}

// IsDueOn reports whether the rule has an occurrence on the given date.
func IsDueOn(rule Rule, date time.Time) bool {
	if rule.Validate() != nil {
		return false
	}
	return rule.matches(Normalize(date))
}

func (r Rule) matches(d time.Time) bool {
	anchor := Normalize(r.Anchor)

	switch r.Type {
	case Daily:
		return true
	case Weekly:
		return d.Weekday() == r.weekday()
	case Biweekly:
		if d.Weekday() != r.weekday() {
			return false
		}
		return mod(weeksBetween(weekStart(anchor), weekStart(d)), 2) == 0
	case Monthly:
		return d.Day() == clampDay(r.monthDay(), d.Year(), d.Month())
	case Quarterly:
		if mod(monthsBetween(anchor, d), 3) != 0 {
			return false
		}
		return d.Day() == clampDay(r.monthDay(), d.Year(), d.Month())
	case Yearly:
		if d.Month() != anchor.Month() {
			return false
		}
		return d.Day() == clampDay(r.monthDay(), d.Year(), d.Month())
	}
	return false
}

// weekStart returns the Sunday that opens t's week.
func weekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func weeksBetween(a, b time.Time) int {
	days := int(b.Sub(a).Hours() / 24)
	return days / 7
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// clampDay pulls day back to the month's last day when the month is shorter.
func clampDay(day, year int, month time.Month) int {
	if last := daysInMonth(year, month); day > last {
		return last
	}
	return day
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
