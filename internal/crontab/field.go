package crontab

// FieldKind identifies one of the five positional fields of a crontab
// expression.
type FieldKind int

const (
	Minute FieldKind = iota
	Hour
	Day
	Month
	DayOfWeek
)

// String returns the field name as used in error messages.
func (k FieldKind) String() string {
	switch k {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Month:
		return "month"
	case DayOfWeek:
		return "day-of-week"
	default:
		return "unknown"
	}
}

// fieldDescriptor holds the inclusive value bounds of a field kind and,
// for month and day-of-week, the ordered symbolic name table. Names are
// matched by case-insensitive prefix, first match in table order wins.
// The tables are package constants in effect: initialized once, never
// mutated, shared by every schedule.
type fieldDescriptor struct {
	min   int
	max   int
	names []string
}

var descriptors = [...]fieldDescriptor{
	Minute: {min: 0, max: 59},
	Hour:   {min: 0, max: 23},
	Day:    {min: 1, max: 31},
	Month: {min: 1, max: 12, names: []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}},
	DayOfWeek: {min: 0, max: 6, names: []string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	}},
}
