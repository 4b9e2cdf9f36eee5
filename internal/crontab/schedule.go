package crontab

import (
	"iter"
	"strings"
	"time"
)

// endOfTime caps unbounded occurrence searches. Next returns it (in the
// base time's location) when an expression can never match again, which
// in practice only happens for day/month combinations that do not exist.
var endOfTime = time.Date(9999, time.December, 31, 23, 59, 0, 0, time.UTC)

// Schedule is a parsed five-field crontab expression: minute, hour,
// day-of-month, month, day-of-week. Immutable and safe for concurrent
// use after Parse.
type Schedule struct {
	minutes    *Field
	hours      *Field
	days       *Field
	months     *Field
	daysOfWeek *Field
}

// Parse parses a crontab expression of exactly five whitespace-separated
// fields, e.g. "*/15 9-17 * * 1-5". It returns a *ParseError when the
// expression does not split into five fields or any field is malformed.
func Parse(expression string) (*Schedule, error) {
	fields := strings.Fields(expression)
	if len(fields) != 5 {
		return nil, &ParseError{
			Text:   expression,
			Reason: "expected 5 fields (minute hour day month day-of-week)",
		}
	}

	s := &Schedule{}
	for i, target := range []**Field{&s.minutes, &s.hours, &s.days, &s.months, &s.daysOfWeek} {
		f, err := ParseField(FieldKind(i), fields[i])
		if err != nil {
			return nil, err
		}
		*target = f
	}
	return s, nil
}

// MustParse is like Parse but panics on a malformed expression. For
// expressions known valid at compile time.
func MustParse(expression string) *Schedule {
	s, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the next occurrence strictly after base, at whole-minute
// granularity, in base's location.
func (s *Schedule) Next(base time.Time) time.Time {
	return s.NextBefore(base, endOfTime)
}

// NextBefore returns the next occurrence strictly after base and before
// until, or until itself when no earlier occurrence exists.
//
// The search resolves one field at a time, coarsening from minute to
// hour to day to month to year. Whenever a coarser field has to
// advance, every finer field restarts from its first value. Day
// validity is checked against the field set first and against the
// actual month length second, since the day set spans 1-31 regardless
// of month; a day past the end of the resolved month sends the search
// back to the day stage. The day-of-week set acts as a filter on the
// fully assembled candidate: a rejected candidate restarts the search
// from the end of that day.
func (s *Schedule) NextBefore(base, until time.Time) time.Time {
	baseYear, baseMonthM, baseDay := base.Date()
	baseMonth := int(baseMonthM)
	baseHour := base.Hour()

	endYear, endMonthM, endDay := until.Date()
	endMonth := int(endMonthM)

	year, month, day := baseYear, baseMonth, baseDay
	hour, minute := baseHour, base.Minute()+1

	minute = s.minutes.Next(minute)
	if minute == noValue {
		minute = s.minutes.First()
		hour++
	}

	hour = s.hours.Next(hour)
	if hour == noValue {
		minute = s.minutes.First()
		hour = s.hours.First()
		day++
	} else if hour > baseHour {
		minute = s.minutes.First()
	}

	day = s.days.Next(day)
	for {
		if day == noValue {
			minute = s.minutes.First()
			hour = s.hours.First()
			day = s.days.First()
			month++
		} else if day > baseDay {
			minute = s.minutes.First()
			hour = s.hours.First()
		}

		month = s.months.Next(month)
		if month == noValue {
			minute = s.minutes.First()
			hour = s.hours.First()
			day = s.days.First()
			month = s.months.First()
			year++
		} else if month > baseMonth {
			minute = s.minutes.First()
			hour = s.hours.First()
			day = s.days.First()
		}

		// A day/month combination that exists in no year (Feb 30) would
		// otherwise retry forever.
		if year > endYear {
			return until
		}

		// The day set spans 1-31 for every month, so the candidate day
		// can overshoot the resolved month (Feb 30, Apr 31, non-leap
		// Feb 29). Send the search back through the day/month stages
		// unless it has already run past the bound.
		dateChanged := day != baseDay || month != baseMonth || year != baseYear
		if day > 28 && dateChanged && day > daysInMonth(year, month) {
			if year >= endYear && month >= endMonth && day >= endDay {
				return until
			}
			day = noValue
			continue
		}
		break
	}

	next := time.Date(year, time.Month(month), day, hour, minute, 0, 0, base.Location())
	if !next.Before(until) {
		return until
	}

	if s.daysOfWeek.Contains(int(next.Weekday())) {
		return next
	}

	// Wrong weekday: resume from the last minute of the rejected day so
	// the same date is never reconsidered.
	endOfDay := time.Date(year, time.Month(month), day, 23, 59, 0, 0, base.Location())
	return s.NextBefore(endOfDay, until)
}

// Occurrences returns the occurrences strictly after base and before
// until, in increasing order, as a lazy sequence.
func (s *Schedule) Occurrences(base, until time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := s.NextBefore(base, until); t.Before(until); t = s.NextBefore(t, until) {
			if !yield(t) {
				return
			}
		}
	}
}

// String renders the canonical numeric form of the expression: five
// fields joined by single spaces, symbolic names always suppressed.
func (s *Schedule) String() string {
	var b strings.Builder
	for i, f := range []*Field{s.minutes, s.hours, s.days, s.months, s.daysOfWeek} {
		if i > 0 {
			b.WriteByte(' ')
		}
		f.Format(&b, true)
	}
	return b.String()
}

// daysInMonth returns the number of days in the given month, accounting
// for leap years.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
