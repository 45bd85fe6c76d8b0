// Package dates turns loose, human-written date and duration phrases into
// calendar dates. Everything here is pure: callers supply the reference date.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Layout is the canonical ISO calendar date form.
const Layout = "2006-01-02"

// MaxStay is the longest stay in days that is treated as readable. Longer
// stays would push a return date past the year 9999.
const MaxStay = 3660

var (
	isoRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})(?:$|[^\d])`)
	numericRe = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})(?:[/.\-](\d{2,4}))?\b`)
	clockRe   = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:am|pm)?\b|\b\d{1,2}\s*(?:am|pm)\b`)
	inRe      = regexp.MustCompile(`\bin\s+(\d+|a|an|one)\s+(day|week)s?\b`)
	numberRe  = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)?$`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// Today returns the current UTC calendar date.
func Today() time.Time { return Midnight(time.Now()) }

// Midnight drops the clock part of t, keeping its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(Layout) }

// ParseISO parses a canonical YYYY-MM-DD string.
func ParseISO(s string) (time.Time, bool) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays returns t moved n calendar days.
func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in month m of year. Months past December
// roll into the following year.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// HasDigit reports whether s contains at least one decimal digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

type parts struct {
	year, month, day int
	weekday          time.Weekday
	hasWeekday       bool
}

// ParseDate interprets text as a date, filling missing parts from ref.
//
// When no year is written and the result lands before ref on an earlier or
// equal month/day, the date moves to the next year ("July 10" said on
// 2024-08-01 means 2025-07-10). ok is false when nothing date-like is found
// or the date does not exist.
func ParseDate(text string, ref time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return time.Time{}, false
	}
	ref = Midnight(ref)

	if t, ok := parseRelative(s, ref); ok {
		return t, true
	}

	var p parts
	switch m := isoRe.FindStringSubmatch(s); {
	case m != nil:
		p.year, p.month, p.day = atoi(m[1]), atoi(m[2]), atoi(m[3])
		if p.month == 0 || p.day == 0 {
			return time.Time{}, false
		}
	default:
		s = clockRe.ReplaceAllString(s, " ")
		if n := numericRe.FindStringSubmatch(s); n != nil {
			p.month, p.day = atoi(n[1]), atoi(n[2])
			if p.month == 0 || p.day == 0 {
				return time.Time{}, false
			}
			if n[3] != "" {
				p.year = expandYear(atoi(n[3]))
			}
		} else if !p.scan(s) {
			return time.Time{}, false
		}
	}
	return p.resolve(ref)
}

func parseRelative(s string, ref time.Time) (time.Time, bool) {
	if m := inRe.FindStringSubmatch(s); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		if m[2] == "week" {
			n *= 7
		}
		return AddDays(ref, n), true
	}
	for _, w := range words(s) {
		switch w {
		case "tomorrow":
			return AddDays(ref, 1), true
		case "today", "tonight":
			return ref, true
		}
	}
	return time.Time{}, false
}

// scan walks the words of s and keeps anything that looks like a date part.
// Unknown words are skipped.
func (p *parts) scan(s string) bool {
	found := false
	for _, w := range words(s) {
		if m, ok := lookupMonth(w); ok {
			if p.month == 0 {
				p.month = int(m)
				found = true
			}
			continue
		}
		if wd, ok := weekdays[w]; ok {
			p.weekday, p.hasWeekday = wd, true
			found = true
			continue
		}
		if wd, ok := lookupWeekdayAbbrev(w); ok {
			p.weekday, p.hasWeekday = wd, true
			found = true
			continue
		}
		m := numberRe.FindStringSubmatch(w)
		if m == nil {
			continue
		}
		n := atoi(m[1])
		switch {
		case n == 0 || len(m[1]) > 4:
			continue
		case len(m[1]) == 4:
			p.year = n
		case n > 99:
			continue
		case n > 31:
			if p.year == 0 {
				p.year = expandYear(n)
			}
		case p.day == 0:
			p.day = n
		case p.month == 0 && n <= 12:
			p.month = n
		case p.year == 0:
			p.year = expandYear(n)
		default:
			continue
		}
		found = true
	}
	return found
}

func (p parts) resolve(ref time.Time) (time.Time, bool) {
	if p.day == 0 && p.month == 0 && p.year == 0 && p.hasWeekday {
		delta := (int(p.weekday) - int(ref.Weekday()) + 7) % 7
		return AddDays(ref, delta), true
	}

	yearGiven := p.year != 0
	y := p.year
	if !yearGiven {
		y = ref.Year()
	}
	m := time.Month(p.month)
	if p.month == 0 {
		m = ref.Month()
	}
	if m < time.January || m > time.December {
		return time.Time{}, false
	}
	d := p.day
	if d == 0 {
		d = min(ref.Day(), DaysIn(y, m))
	}
	if d < 1 || d > DaysIn(y, m) {
		return time.Time{}, false
	}

	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !yearGiven && t.Before(ref) &&
		(m < ref.Month() || (m == ref.Month() && d <= ref.Day())) {
		y++
		if d > DaysIn(y, m) {
			return time.Time{}, false
		}
		t = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return t, true
}

// CalculateDuration reads "[for] [a|N] <unit>[s]" as a number of days.
//
// week counts 7 days per unit. month is the length of the calendar month that
// follows ref's month and year is 365 or 366 by ref's year, whatever the
// count. 0 means the phrase could not be read or exceeds MaxStay.
func CalculateDuration(text string, ref time.Time) int {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0
	}
	s = strings.TrimPrefix(s, "for ")

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0
	}
	if fields[0] == "a" || fields[0] == "an" {
		fields[0] = "1"
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 || n > MaxStay {
		return 0
	}

	switch strings.TrimRight(fields[1], "s") {
	case "day":
		return n
	case "week":
		if n*7 > MaxStay {
			return 0
		}
		return n * 7
	case "month":
		return DaysIn(ref.Year(), ref.Month()+1)
	case "year":
		if IsLeap(ref.Year()) {
			return 366
		}
		return 365
	}
	return 0
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func lookupMonth(w string) (time.Month, bool) {
	if m, ok := months[w]; ok {
		return m, true
	}
	if len(w) < 3 {
		return 0, false
	}
	for name, m := range months {
		if strings.HasPrefix(name, w) {
			return m, true
		}
	}
	return 0, false
}

func lookupWeekdayAbbrev(w string) (time.Weekday, bool) {
	if len(w) < 3 {
		return 0, false
	}
	for name, wd := range weekdays {
		if strings.HasPrefix(name, w) {
			return wd, true
		}
	}
	return 0, false
}

func expandYear(n int) int {
	if n < 100 {
		return 2000 + n
	}
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
