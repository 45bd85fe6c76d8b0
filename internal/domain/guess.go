package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindText
	kindNumber
)

// RawValue is one field of a model's guess: absent, text, or a number.
// The zero value is absent.
type RawValue struct {
	kind valueKind
	text string
	num  float64
}

func Absent() RawValue            { return RawValue{} }
func Text(s string) RawValue      { return RawValue{kind: kindText, text: s} }
func Number(n float64) RawValue   { return RawValue{kind: kindNumber, num: n} }
func Int(n int) RawValue          { return Number(float64(n)) }
func (v RawValue) Present() bool  { return v.kind != kindAbsent }
func (v RawValue) IsText() bool   { return v.kind == kindText }
func (v RawValue) IsNumber() bool { return v.kind == kindNumber }

// Number returns the numeric payload, if the value is a number.
func (v RawValue) Number() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// String returns the text form of the value; "" when absent.
func (v RawValue) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return ""
}

// Int reads the value leniently as an integer: numbers are truncated, text is
// parsed after trimming, anything else is 0.
func (v RawValue) Int() int {
	switch v.kind {
	case kindNumber:
		return int(v.num)
	case kindText:
		if n, err := strconv.Atoi(strings.TrimSpace(v.text)); err == nil {
			return n
		}
	}
	return 0
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindNumber:
		return json.Marshal(v.num)
	}
	return []byte("null"), nil
}

func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Absent()
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
	case bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false")):
		*v = Text(string(b))
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("raw value %s: %w", b, err)
		}
		*v = Number(n)
	}
	return nil
}

// RawGuess is the extractor's unvalidated reading of a trip request. Every
// field keeps whether the model supplied it at all.
type RawGuess struct {
	DepartureLocation RawValue `json:"departure_location"`
	ArrivalLocation   RawValue `json:"arrival_location"`
	AdultGuests       RawValue `json:"adult_guests"`
	DepartureDate     RawValue `json:"departure_date_leaving"`
	LengthOfStay      RawValue `json:"length_of_stay"`
	HolidayType       RawValue `json:"holiday_type"`
	ReturnDate        RawValue `json:"arrival_date_coming_back"`
}

// Get returns the value stored for f.
func (g *RawGuess) Get(f Field) RawValue {
	if p := g.slot(f); p != nil {
		return *p
	}
	return Absent()
}

// Set replaces the value stored for f. Unknown fields are ignored.
func (g *RawGuess) Set(f Field, v RawValue) {
	if p := g.slot(f); p != nil {
		*p = v
	}
}

func (g *RawGuess) slot(f Field) *RawValue {
	switch f {
	case FieldDepartureLocation:
		return &g.DepartureLocation
	case FieldArrivalLocation:
		return &g.ArrivalLocation
	case FieldAdultGuests:
		return &g.AdultGuests
	case FieldDepartureDate:
		return &g.DepartureDate
	case FieldLengthOfStay:
		return &g.LengthOfStay
	case FieldHolidayType:
		return &g.HolidayType
	case FieldReturnDate:
		return &g.ReturnDate
	}
	return nil
}

// Literal projects the guess onto a TripQuery without any coercion, so
// placeholders can be spotted in exactly what the model wrote.
func (g RawGuess) Literal() TripQuery {
	return TripQuery{
		DepartureLocation: g.DepartureLocation.String(),
		ArrivalLocation:   g.ArrivalLocation.String(),
		AdultGuests:       g.AdultGuests.Int(),
		DepartureDate:     g.DepartureDate.String(),
		LengthOfStay:      g.LengthOfStay.Int(),
		HolidayType:       g.HolidayType.String(),
		ReturnDate:        g.ReturnDate.String(),
	}
}
