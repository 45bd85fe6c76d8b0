// Package airports maps city names to IATA codes.
package airports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

var majorCities = map[string]string{
	"london":    "LHR",
	"paris":     "CDG",
	"new york":  "JFK",
	"tokyo":     "HND",
	"dubai":     "DXB",
	"rome":      "FCO",
	"amsterdam": "AMS",
	"frankfurt": "FRA",
	"madrid":    "MAD",
	"istanbul":  "IST",
}

// Resolver answers from a fixed list of major hubs first, then from an
// OpenFlights airports.dat table if one was loaded.
type Resolver struct {
	byCity map[string]string
}

func New() *Resolver {
	return &Resolver{byCity: map[string]string{}}
}

// LoadFile reads an OpenFlights airports.dat file.
func LoadFile(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads OpenFlights rows: id,name,city,country,iata,... Rows without an
// IATA code are skipped. Where a city has several airports the first
// "International" one wins, otherwise the first listed.
func Load(r io.Reader) (*Resolver, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	res := New()
	intl := map[string]bool{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airports: %w", err)
		}
		if len(row) < 5 {
			continue
		}
		name, city, iata := row[1], key(row[2]), strings.ToUpper(strings.TrimSpace(row[4]))
		if city == "" || len(iata) != 3 || iata == `\N` {
			continue
		}
		isIntl := strings.Contains(strings.ToLower(name), "international")
		if _, seen := res.byCity[city]; !seen || (isIntl && !intl[city]) {
			res.byCity[city] = iata
			intl[city] = isIntl
		}
	}
	return res, nil
}

func (r *Resolver) Len() int { return len(r.byCity) }

func (r *Resolver) ResolveIATA(city string) (string, bool) {
	k := key(city)
	if i := strings.IndexByte(k, ','); i >= 0 {
		k = strings.TrimSpace(k[:i])
	}
	if k == "" {
		return "", false
	}
	if code, ok := majorCities[k]; ok {
		return code, true
	}
	code, ok := r.byCity[k]
	return code, ok
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
