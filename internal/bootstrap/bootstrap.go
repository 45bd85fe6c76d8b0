// Package bootstrap builds the application graph from a Config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/adapters/airports"
	"trip_planner/internal/adapters/booking"
	"trip_planner/internal/adapters/gemini"
	"trip_planner/internal/adapters/memory"
	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/adapters/serpapi"
	"trip_planner/internal/adapters/tripadvisor"
	"trip_planner/internal/app"
	"trip_planner/internal/domain"
	"trip_planner/internal/shared"
)

type App struct {
	Cache    domain.Cache
	Sessions *app.Sessions
	Planner  *app.Planner
	Packages *app.PackageService

	closers []func() error
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// Build wires the vendors named in cfg. A missing flight key is fatal; a
// missing Gemini or RapidAPI key only disables that part.
func Build(ctx context.Context, cfg shared.Config) (*App, error) {
	a := &App{}

	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		a.Cache = rc
		a.closers = append(a.closers, rc.Close)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
	} else {
		maxTTL := cfg.SessionTTL
		if cfg.CacheTTL > maxTTL {
			maxTTL = cfg.CacheTTL
		}
		a.Cache = memory.New(cfg.SessionCacheSize, maxTTL)
		log.Info().Int("size", cfg.SessionCacheSize).Msg("using in-process cache")
	}

	flights, err := serpapi.New(cfg.SerpAPIBase, cfg.SerpAPIKey, cfg.VendorRPS)
	if err != nil {
		return nil, err
	}

	var hotels domain.HotelAPI
	var activities domain.ActivityAPI
	if b, err := booking.New(cfg.BookingBase, cfg.RapidAPIKey, cfg.VendorRPS); err == nil {
		hotels = b
	} else {
		log.Warn().Err(err).Msg("hotel search disabled")
	}
	if t, err := tripadvisor.New(cfg.TripAdvisorBase, cfg.RapidAPIKey, cfg.VendorRPS); err == nil {
		activities = t
	} else {
		log.Warn().Err(err).Msg("activity search disabled")
	}

	var extractor domain.GuessExtractor
	if x, err := gemini.New(ctx, cfg.GeminiKey, cfg.GeminiModel); err == nil {
		extractor = x
	} else {
		log.Warn().Err(err).Msg("free-text extraction disabled")
	}

	resolver := airports.New()
	if cfg.AirportsCSV != "" {
		r, err := airports.LoadFile(cfg.AirportsCSV)
		if err != nil {
			return nil, err
		}
		resolver = r
		log.Info().Int("cities", r.Len()).Str("file", cfg.AirportsCSV).Msg("airports loaded")
	}

	a.Packages = app.NewPackageService(nil)
	search := app.NewSearcher(flights, hotels, activities, a.Cache, cfg.CacheTTL, cfg.Currency)
	a.Planner = app.NewPlanner(extractor, resolver, search, a.Packages, cfg.PlanWorkers, cfg.Currency)
	a.Sessions = app.NewSessions(a.Cache, cfg.SessionTTL, app.SessionOptions{MaxRounds: cfg.MaxRounds})
	return a, nil
}
