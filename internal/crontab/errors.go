// Package crontab parses five-field crontab expressions and computes
// the calendar instants they match. An expression is parsed once into
// an immutable Schedule; all occurrence computation is a pure function
// of the schedule and a caller-supplied base time.
package crontab

import (
	"fmt"
	"strings"
)

// ParseError describes a crontab expression or field that could not be
// parsed. It always names the offending text; when the cause was an
// unrecognized symbolic name it also carries the valid names so the
// caller can correct the expression.
type ParseError struct {
	Text       string   // offending expression or field text
	Reason     string   // what was wrong with it
	ValidNames []string // valid symbolic names, when relevant
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("crontab: cannot parse %q: %s", e.Text, e.Reason)
	if len(e.ValidNames) > 0 {
		msg += fmt.Sprintf(" (valid names: %s)", strings.Join(e.ValidNames, ", "))
	}
	return msg
}
