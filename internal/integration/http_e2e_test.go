//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"trip_planner/internal/adapters/airports"
	"trip_planner/internal/adapters/booking"
	httpserver "trip_planner/internal/adapters/http_server"
	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/adapters/serpapi"
	"trip_planner/internal/adapters/tripadvisor"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
)

// ---------- fake vendors ----------

// vendor answers SerpAPI, Booking.com and TripAdvisor paths on one server.
func vendor(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "serp" || q.Get("engine") != "google_flights" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"best_flights": [{"flights": [{"departure_airport": {"id": %q}, "arrival_airport": {"id": %q}, "airline": "E2E Air"}], "price": 150}]}`,
			q.Get("departure_id"), q.Get("arrival_id"))
	})
	mux.HandleFunc("/api/v1/hotels/searchDestination", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"dest_id": "-1456928", "search_type": "city"}]}`)
	})
	mux.HandleFunc("/api/v1/hotels/searchHotels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"hotels": [{"hotel_id": 5, "property": {"name": "E2E Hotel", "priceBreakdown": {"grossPrice": {"value": 600}}}}]}}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "auto-complete"):
			fmt.Fprint(w, `{"data": [{"geoId": 187147, "trackingItems": {"placeType": "CITY"}}]}`)
		case strings.Contains(r.URL.Path, "attractions"):
			fmt.Fprint(w, `{"data": {"attractions": [{"cardTitle": {"string": "Seine cruise"}, "cardLink": {"route": {"typedParams": {"contentId": "9"}}}, "merchandisingText": {"htmlString": "from £20.00"}}]}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any, out any) int {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

// ---------- the test ----------
func TestHTTP_EndToEnd_SessionToPackage(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	v := vendor(t)
	flights, err := serpapi.New(v.URL, "serp", 50)
	if err != nil {
		t.Fatal(err)
	}
	hotels, err := booking.New(v.URL, "rapid", 50)
	if err != nil {
		t.Fatal(err)
	}
	acts, err := tripadvisor.New(v.URL, "rapid", 50)
	if err != nil {
		t.Fatal(err)
	}

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	pkgs := app.NewPackageService(now)
	search := app.NewSearcher(flights, hotels, acts, cache, time.Minute, "GBP")
	h := &httpserver.Handlers{
		Sessions: app.NewSessions(cache, time.Hour, app.SessionOptions{Now: now}),
		Planner:  app.NewPlanner(nil, airports.New(), search, pkgs, 2, "GBP"),
		Packages: pkgs,
	}
	srv := httpserver.New(10 * time.Second)
	srv.MountHandlers(h)
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	var view app.SessionView
	status := post(t, api.URL+"/v1/sessions", map[string]any{"guess": map[string]any{
		"departure_location": "London", "arrival_location": "Paris", "adult_guests": 2,
		"departure_date_leaving": "", "length_of_stay": 0, "holiday_type": "romantic",
	}}, &view)
	if status != http.StatusCreated || view.Question == nil {
		t.Fatalf("start: status %d view %+v", status, view)
	}
	if !mr.Exists("trip:session:" + view.ID) {
		t.Fatalf("session not parked in redis")
	}

	for _, answer := range []string{"10th July", "for a week"} {
		if status := post(t, api.URL+"/v1/sessions/"+view.ID+"/answers", map[string]string{"answer": answer}, &view); status != http.StatusOK {
			t.Fatalf("answer %q: status %d", answer, status)
		}
	}
	if view.State != app.StateValidated || view.Query.ReturnDate != "2025-07-17" {
		t.Fatalf("not validated: %+v", view)
	}

	var plan struct {
		Package *domain.HolidayPackage `json:"package"`
	}
	if status := post(t, api.URL+"/v1/sessions/"+view.ID+"/plan", nil, &plan); status != http.StatusCreated {
		t.Fatalf("plan status %d", status)
	}
	p := plan.Package
	if p == nil || p.Hotel == nil || p.Hotel.Name != "E2E Hotel" || len(p.Activities) != 1 {
		t.Fatalf("unexpected package: %+v", p)
	}
	// 150 + 150 flights, 600 hotel, 20 x 2 adults
	if p.TotalPrice.Amount != 940 || p.Guests != 2 || p.Rooms != 1 {
		t.Fatalf("unexpected totals: %+v", p)
	}

	var cachedFlights []domain.Flight
	if ok, err := cache.Get(context.Background(), "flights:LHR:CDG:2025-07-10:2:GBP", &cachedFlights); err != nil || !ok || len(cachedFlights) != 1 {
		t.Fatalf("flight search not cached: ok=%v err=%v", ok, err)
	}
}
