package crontab

import (
	"fmt"
	"strconv"
	"strings"
)

// noValue is returned by Next when no marked value remains.
const noValue = -1

// Field is the set of values one crontab field matches, stored as a
// bitmask over the field kind's value range. A Field is built once by
// ParseField and immutable afterwards.
type Field struct {
	kind FieldKind
	bits uint64
}

// ParseField parses a single crontab field expression such as "*",
// "*/15", "1-5", "Jan-Mar" or "0,30" into the set of values it matches.
// A successfully parsed field always contains at least one value.
func ParseField(kind FieldKind, text string) (*Field, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Text: text, Reason: fmt.Sprintf("%s field is empty", kind)}
	}
	f := &Field{kind: kind}
	for _, term := range strings.Split(text, ",") {
		if err := f.parseTerm(term); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Field) desc() *fieldDescriptor {
	return &descriptors[f.kind]
}

// parseTerm handles one comma-separated term: an atom ('*', a value, or
// a first-last range) with an optional '/step' suffix.
func (f *Field) parseTerm(term string) error {
	step := 1
	if i := strings.IndexByte(term, '/'); i >= 0 {
		n, err := strconv.Atoi(term[i+1:])
		if err != nil {
			return &ParseError{Text: term, Reason: fmt.Sprintf("malformed step in %s field", f.kind)}
		}
		if n < 1 {
			return &ParseError{Text: term, Reason: fmt.Sprintf("step in %s field must be positive", f.kind)}
		}
		step = n
		term = term[:i]
	}

	if term == "*" {
		return f.accumulate(noValue, noValue, step)
	}

	if i := strings.IndexByte(term, '-'); i > 0 {
		first, err := f.parseValue(term[:i])
		if err != nil {
			return err
		}
		last, err := f.parseValue(term[i+1:])
		if err != nil {
			return err
		}
		return f.accumulate(first, last, step)
	}

	value, err := f.parseValue(term)
	if err != nil {
		return err
	}
	if step == 1 {
		return f.accumulate(value, value, 1)
	}
	// A stepped value without an explicit range runs through the end of
	// the field's range: "5/15" on minutes means 5,20,35,50. Established
	// behavior, kept on purpose.
	return f.accumulate(value, f.desc().max, step)
}

// parseValue parses a single numeric value or symbolic name prefix.
func (f *Field) parseValue(s string) (int, error) {
	if s == "" {
		return 0, &ParseError{Text: s, Reason: fmt.Sprintf("missing value in %s field", f.kind)}
	}
	if c := s[0]; c >= '0' && c <= '9' {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &ParseError{Text: s, Reason: fmt.Sprintf("malformed number in %s field", f.kind)}
		}
		return n, nil
	}

	d := f.desc()
	if len(d.names) == 0 {
		return 0, &ParseError{Text: s, Reason: fmt.Sprintf("%s field takes numbers only", f.kind)}
	}
	for i, name := range d.names {
		if len(s) <= len(name) && strings.EqualFold(s, name[:len(s)]) {
			return d.min + i, nil
		}
	}
	return 0, &ParseError{
		Text:       s,
		Reason:     fmt.Sprintf("unknown %s name", f.kind),
		ValidNames: d.names,
	}
}

// accumulate marks every step'th value of [start, end]. Negative start
// and end stand for the field's full range (a '*' atom). Range bounds
// are validated here, not by the grammar.
func (f *Field) accumulate(start, end, step int) error {
	d := f.desc()
	if start == noValue {
		start, end = d.min, d.max
	}
	if start < d.min || start > d.max {
		return &ParseError{
			Text:   strconv.Itoa(start),
			Reason: fmt.Sprintf("%s field value out of range %d-%d", f.kind, d.min, d.max),
		}
	}
	if end < d.min || end > d.max {
		return &ParseError{
			Text:   strconv.Itoa(end),
			Reason: fmt.Sprintf("%s field value out of range %d-%d", f.kind, d.min, d.max),
		}
	}
	if end < start {
		return &ParseError{
			Text:   fmt.Sprintf("%d-%d", start, end),
			Reason: fmt.Sprintf("%s field range is inverted", f.kind),
		}
	}
	for v := start; v <= end; v += step {
		f.bits |= 1 << uint(v-d.min)
	}
	return nil
}

// Contains reports whether value is in the set.
func (f *Field) Contains(value int) bool {
	d := f.desc()
	if value < d.min || value > d.max {
		return false
	}
	return f.bits&(1<<uint(value-d.min)) != 0
}

// First returns the smallest value in the set.
func (f *Field) First() int {
	return f.Next(f.desc().min)
}

// Next returns the smallest value in the set that is >= from, or -1
// when no such value exists.
func (f *Field) Next(from int) int {
	d := f.desc()
	if from < d.min {
		from = d.min
	}
	for v := from; v <= d.max; v++ {
		if f.bits&(1<<uint(v-d.min)) != 0 {
			return v
		}
	}
	return noValue
}

// Format renders the set in canonical text form: maximal contiguous
// runs coalesced to "first-last", runs separated by commas, the full
// range rendered as "*". Values appear as two-digit numbers when
// suppressNames is set or the field has no name table, otherwise as
// their symbolic names.
func (f *Field) Format(b *strings.Builder, suppressNames bool) {
	d := f.desc()
	runs := 0
	for v := f.First(); v != noValue; v = f.Next(v + 1) {
		first := v
		for v < d.max && f.Contains(v+1) {
			v++
		}
		if runs == 0 && first == d.min && v == d.max {
			b.WriteByte('*')
			return
		}
		if runs > 0 {
			b.WriteByte(',')
		}
		f.formatValue(b, first, suppressNames)
		if v != first {
			b.WriteByte('-')
			f.formatValue(b, v, suppressNames)
		}
		runs++
	}
}

func (f *Field) formatValue(b *strings.Builder, value int, suppressNames bool) {
	d := f.desc()
	if suppressNames || len(d.names) == 0 {
		fmt.Fprintf(b, "%02d", value)
		return
	}
	b.WriteString(d.names[value-d.min])
}

// String renders the set with symbolic names where the field has them.
func (f *Field) String() string {
	var b strings.Builder
	f.Format(&b, false)
	return b.String()
}
