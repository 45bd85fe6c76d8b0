package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/dates"
	"trip_planner/internal/domain"
)

// Validator coerces a raw guess into a typed, self-consistent TripQuery.
// Malformed fields degrade to sentinels; nothing user-supplied is an error.
type Validator struct {
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

func (v *Validator) today() time.Time { return dates.Midnight(v.now()) }

// Normalize returns a copy of raw with every present field canonicalized.
// Absent fields stay absent. Steps run in order: guests, departure date,
// length of stay (which reads the departure date), return date.
func (v *Validator) Normalize(raw domain.RawGuess) domain.RawGuess {
	out := raw
	today := v.today()

	if raw.AdultGuests.Present() {
		out.AdultGuests = domain.Int(coerceGuests(raw.AdultGuests))
	}

	dep, hasDep := v.coerceDepartureDate(&out, today)

	if raw.LengthOfStay.Present() {
		ref := today
		if hasDep {
			ref = dep
		}
		out.LengthOfStay = domain.Int(coerceLengthOfStay(raw.LengthOfStay, ref))
	}

	out.ReturnDate = domain.Text(returnDate(dep, hasDep, out.LengthOfStay.Int()))
	return out
}

// Coerce normalizes raw and builds the final query. An error here means the
// coercion itself produced an inconsistent query.
func (v *Validator) Coerce(raw domain.RawGuess) (domain.TripQuery, error) {
	q := v.Normalize(raw).Literal()
	if err := q.Check(); err != nil {
		return domain.TripQuery{}, fmt.Errorf("coerce guess: %w", err)
	}
	return q, nil
}

func coerceGuests(raw domain.RawValue) int {
	if n, ok := raw.Number(); ok {
		return max(int(n), 0)
	}
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Debug().Str("field", string(domain.FieldAdultGuests)).Str("raw", s).Msg("guest count unreadable")
		return 0
	}
	return n
}

func (v *Validator) coerceDepartureDate(g *domain.RawGuess, today time.Time) (time.Time, bool) {
	if !g.DepartureDate.Present() {
		return time.Time{}, false
	}
	s := g.DepartureDate.String()
	if !dates.HasDigit(s) {
		// prose like "soon" is never read as a date
		if strings.TrimSpace(s) != "" {
			log.Debug().Str("field", string(domain.FieldDepartureDate)).Str("raw", s).Msg("departure date has no digits")
		}
		g.DepartureDate = domain.Text("")
		return time.Time{}, false
	}
	d, ok := dates.ParseDate(s, today)
	if !ok {
		log.Debug().Str("field", string(domain.FieldDepartureDate)).Str("raw", s).Msg("departure date unparseable")
		g.DepartureDate = domain.Text("")
		return time.Time{}, false
	}
	g.DepartureDate = domain.Text(dates.FormatDate(d))
	return d, true
}

func coerceLengthOfStay(raw domain.RawValue, ref time.Time) int {
	if n, ok := raw.Number(); ok {
		if math.IsNaN(n) || n <= 0 || n > dates.MaxStay {
			return 0
		}
		return int(n)
	}
	s := raw.String()
	if d := dates.CalculateDuration(s, ref); d > 0 {
		return d
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	n, err := strconv.Atoi(digits)
	if err != nil || n > dates.MaxStay {
		if strings.TrimSpace(s) != "" {
			log.Debug().Str("field", string(domain.FieldLengthOfStay)).Str("raw", s).Msg("length of stay unreadable")
		}
		return 0
	}
	return n
}

func returnDate(dep time.Time, hasDep bool, stay int) string {
	if !hasDep || stay <= 0 {
		return ""
	}
	return dates.FormatDate(dates.AddDays(dep, stay))
}
