package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/adapters/memory"
	redisad "trip_planner/internal/adapters/redis"
	"trip_planner/internal/shared"
)

func baseConfig() shared.Config {
	return shared.Config{
		SessionTTL:       time.Hour,
		CacheTTL:         time.Minute,
		SessionCacheSize: 16,
		MaxRounds:        3,
		PlanWorkers:      2,
		VendorRPS:        5,
		SerpAPIKey:       "serp",
		Currency:         "GBP",
	}
}

func TestBuild_InProcess(t *testing.T) {
	a, err := Build(context.Background(), baseConfig())
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &memory.Cache{}, a.Cache)
	assert.NotNil(t, a.Sessions)
	assert.NotNil(t, a.Planner)

	_, err = a.Planner.Extract(context.Background(), "Paris")
	assert.Error(t, err, "no Gemini key means no extraction")
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisAddr = mr.Addr()
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &redisad.Cache{}, a.Cache)
}

func TestBuild_Failures(t *testing.T) {
	cfg := baseConfig()
	cfg.SerpAPIKey = ""
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.AirportsCSV = filepath.Join(t.TempDir(), "missing.dat")
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuild_AirportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.dat")
	require.NoError(t, os.WriteFile(path, []byte(`1,"Lisbon Airport","Lisbon","Portugal","LIS","LPPT"`+"\n"), 0o600))
	cfg := baseConfig()
	cfg.AirportsCSV = path
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	a.Close()
}
