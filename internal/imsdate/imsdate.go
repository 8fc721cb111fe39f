// Package imsdate parses IMS2.0 datetime literals: given an IMS datetime
// string it returns a timezone-aware UTC time.Time, or an *InvalidDateError.
// The accepted year range is 1700-5999 (see DESIGN.md decision 8).
package imsdate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// InvalidDateError reports a string that does not match the IMS datetime
// grammar or names a calendar date/time outside valid bounds.
type InvalidDateError struct {
	Input string
	Msg   string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid IMS date %q: %s", e.Input, e.Msg)
}

// pattern matches YYYY[-/.]MM[-/.]DD(T| )HH[:MM[:SS[.fraction]]], year
// 1700-5999.
var pattern = regexp.MustCompile(
	`^(1[7-9]\d\d|[2-5]\d\d\d)[-/.](\d{1,2})[-/.](\d{1,2})` +
		`(?:[T ](\d{1,2})(?::(\d{1,2})(?::(\d{1,2})(?:\.(\d+))?)?)?)?$`)

// Clock is the subset of the external "time utility" contract this package
// provides by default. Callers that want a different datetime library may
// implement Clock themselves; internal/semantic depends only on this
// interface.
type Clock interface {
	Parse(s string) (time.Time, error)
}

// Default is the package-level Clock backed by Parse.
var Default Clock = defaultClock{}

type defaultClock struct{}

func (defaultClock) Parse(s string) (time.Time, error) { return Parse(s) }

// Parse parses s under the IMS datetime grammar and returns a UTC time.Time.
func Parse(s string) (time.Time, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, &InvalidDateError{Input: s, Msg: "does not match YYYY-MM-DD[THH:MM:SS[.ffffff]]"}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 {
		return time.Time{}, &InvalidDateError{Input: s, Msg: "month out of range"}
	}

	hour, minute, sec, nsec := 0, 0, 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		frac := m[7]
		for len(frac) < 9 {
			frac += "0"
		}
		frac = frac[:9]
		nsec, _ = strconv.Atoi(frac)
	}
	if hour > 23 || minute > 59 || sec > 60 {
		return time.Time{}, &InvalidDateError{Input: s, Msg: "time of day out of range"}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, &InvalidDateError{Input: s, Msg: "day out of range for month"}
	}
	return t, nil
}
