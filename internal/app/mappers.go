package app

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/domain"
)

/********** alias registries **********/

// guessAliases lists where a model might put each field. Models drift between
// snake and camel case, so both are accepted.
var guessAliases = map[domain.Field][]string{
	domain.FieldDepartureLocation: {"departure_location", "departureLocation", "origin", "from"},
	domain.FieldArrivalLocation:   {"arrival_location", "arrivalLocation", "destination", "to"},
	domain.FieldAdultGuests:       {"adult_guests", "adultGuests", "adults", "guests"},
	domain.FieldDepartureDate:     {"departure_date_leaving", "departureDateLeaving", "departure_date", "start_date"},
	domain.FieldLengthOfStay:      {"length_of_stay", "lengthOfStay", "duration", "nights"},
	domain.FieldHolidayType:       {"holiday_type", "holidayType", "trip_type", "type"},
	domain.FieldReturnDate:        {"arrival_date_coming_back", "arrivalDateComingBack", "return_date", "end_date"},
}

var hotelAliases = map[string][]string{
	"id":       {"hotel_id", "property.id", "id"},
	"name":     {"property.name", "name", "hotel_name"},
	"address":  {"accessibilityLabel", "property.address", "address"},
	"url":      {"url", "property.url"},
	"price":    {"property.priceBreakdown.grossPrice.value", "property.priceBreakdown.grossPrice.amount", "price"},
	"currency": {"property.priceBreakdown.grossPrice.currency", "property.currency", "currency"},
}

var activityAliases = map[string][]string{
	"id":    {"cardLink.route.typedParams.contentId", "cardLink.route.params.contentId", "contentId", "productId"},
	"title": {"cardTitle.string", "name", "title"},
	"slug":  {"cardLink.route.url", "productSlug", "slug"},
	"price": {"merchandisingText.htmlString", "priceText"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path, or a number rendered as one, or "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func firstNonEmpty(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) (int64, bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return int64(v), true
		case int:
			return int64(v), true
		case int64:
			return v, true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// sliceOfMaps returns the objects of the array at path, skipping anything else.
func sliceOfMaps(m map[string]any, path string) []map[string]any {
	raw, _ := lookupAny(m, path).([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func sliceStrings(m map[string]any, path string) []string {
	raw, _ := lookupAny(m, path).([]any)
	var out []string
	for _, it := range raw {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

/********** model guess **********/

// GuessFromMap reads a decoded model reply into a RawGuess. A key that is
// missing, or null, stays absent.
func GuessFromMap(m map[string]any) domain.RawGuess {
	var g domain.RawGuess
	for field, paths := range guessAliases {
		for _, p := range paths {
			v, ok := m[p]
			if !ok {
				continue
			}
			g.Set(field, rawValueOf(v))
			break
		}
	}
	return g
}

func rawValueOf(v any) domain.RawValue {
	switch t := v.(type) {
	case nil:
		return domain.Absent()
	case string:
		return domain.Text(t)
	case float64:
		return domain.Number(t)
	case int:
		return domain.Int(t)
	case bool:
		return domain.Text(strconv.FormatBool(t))
	}
	log.Debug().Interface("value", v).Msg("unexpected guess value type")
	return domain.Absent()
}

/********** flights (SerpAPI google_flights) **********/

// mapFlights flattens best_flights then other_flights, keeping that order.
func mapFlights(payload map[string]any, currency string) []domain.Flight {
	bookingURL := lookupStr(payload, "search_metadata.google_flights_url")
	var out []domain.Flight
	for _, key := range []string{"best_flights", "other_flights"} {
		for _, f := range sliceOfMaps(payload, key) {
			fl, ok := mapFlight(f, currency)
			if !ok {
				continue
			}
			fl.BookingURL = bookingURL
			out = append(out, fl)
		}
	}
	return out
}

func mapFlight(f map[string]any, currency string) (domain.Flight, bool) {
	segs := sliceOfMaps(f, "flights")
	if len(segs) == 0 {
		return domain.Flight{}, false
	}
	first, last := segs[0], segs[len(segs)-1]
	fl := domain.Flight{
		Airline:      lookupStr(first, "airline"),
		FlightNumber: lookupStr(first, "flight_number"),
		Departure: domain.Airport{
			Code: lookupStr(first, "departure_airport.id"),
			Name: lookupStr(first, "departure_airport.name"),
			Time: lookupStr(first, "departure_airport.time"),
		},
		Arrival: domain.Airport{
			Code: lookupStr(last, "arrival_airport.id"),
			Name: lookupStr(last, "arrival_airport.name"),
			Time: lookupStr(last, "arrival_airport.time"),
		},
		Stops:       len(segs) - 1,
		TravelClass: lookupStr(first, "travel_class"),
		Extensions:  sliceStrings(f, "extensions"),
		Price:       domain.Price{Currency: currency},
	}
	if d, ok := firstInt64Flexible(f, "total_duration", "duration"); ok {
		fl.DurationMin = int(d)
	}
	if c, ok := firstInt64Flexible(f, "carbon_emissions.this_flight"); ok {
		fl.CarbonGrams = int(c)
	}
	if p, ok := getFloatFlexible(f, "price"); ok {
		fl.Price.Amount = p
	}
	return fl, fl.Departure.Code != "" && fl.Arrival.Code != ""
}

/********** hotels (Booking.com) **********/

// searchTypes maps holiday types to Booking.com search types; city otherwise.
var searchTypes = map[string]string{
	"countryside": "region", "mountain": "region", "lake": "region",
	"desert": "region", "island": "region", "wildlife": "region",
}

func hotelSearchType(holidayType, fromDestination string) string {
	if st, ok := searchTypes[strings.ToLower(strings.TrimSpace(holidayType))]; ok {
		return st
	}
	if fromDestination != "" {
		return fromDestination
	}
	return "city"
}

// destination picks the first destination with an id.
func destination(payload map[string]any) (id, searchType string, ok bool) {
	for _, d := range sliceOfMaps(payload, "data") {
		if id = firstNonEmpty(d, "dest_id", "id"); id != "" {
			return id, lookupStr(d, "search_type"), true
		}
	}
	return "", "", false
}

// mapHotels returns priced hotels, cheapest first.
func mapHotels(payload map[string]any, q domain.TripQuery, currency string) []domain.Hotel {
	var out []domain.Hotel
	for _, h := range sliceOfMaps(payload, "data.hotels") {
		id, _ := firstInt64Flexible(h, hotelAliases["id"]...)
		name := firstNonEmpty(h, hotelAliases["name"]...)
		price, priced := getFloatFlexible(h, hotelAliases["price"]...)
		if name == "" || !priced {
			continue
		}
		cur := firstNonEmpty(h, hotelAliases["currency"]...)
		if cur == "" {
			cur = currency
		}
		out = append(out, domain.Hotel{
			ID:       id,
			Name:     name,
			Address:  firstNonEmpty(h, hotelAliases["address"]...),
			URL:      firstNonEmpty(h, hotelAliases["url"]...),
			CheckIn:  q.DepartureDate,
			CheckOut: q.ReturnDate,
			Price:    domain.Price{Amount: price, Currency: cur},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price.Amount < out[j].Price.Amount })
	return out
}

/********** activities (TripAdvisor) **********/

// geoID prefers a city or region typeahead result, then any result.
func geoID(payload map[string]any) (string, bool) {
	results := sliceOfMaps(payload, "data")
	for _, r := range results {
		switch lookupStr(r, "trackingItems.placeType") {
		case "CITY", "REGION":
			if id := firstNonEmpty(r, "geoId"); id != "" {
				return id, true
			}
		}
	}
	for _, r := range results {
		if id := firstNonEmpty(r, "geoId"); id != "" {
			return id, true
		}
	}
	return "", false
}

var fromPriceRe = regexp.MustCompile(`(?i)from\s*(?:[£$€]|&pound;|gbp|usd|eur)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// parseFromPrice reads "from £23.50" style merchandising text.
func parseFromPrice(s string) (float64, bool) {
	m := fromPriceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	return f, err == nil
}

func mapActivities(payload map[string]any, city, currency string) []domain.Activity {
	var out []domain.Activity
	for _, a := range sliceOfMaps(payload, "data.attractions") {
		id := firstNonEmpty(a, activityAliases["id"]...)
		title := firstNonEmpty(a, activityAliases["title"]...)
		if id == "" || title == "" {
			continue
		}
		act := domain.Activity{
			ProductID: id,
			Title:     title,
			City:      city,
			Slug:      firstNonEmpty(a, activityAliases["slug"]...),
			Price:     domain.Price{Currency: currency},
		}
		if p, ok := parseFromPrice(firstNonEmpty(a, activityAliases["price"]...)); ok {
			act.Price.Amount = p
		}
		out = append(out, act)
	}
	return out
}
