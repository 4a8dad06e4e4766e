package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/hudumadata/facility-cli/internal/dedupe"
	"github.com/hudumadata/facility-cli/internal/gazetteer"
	"github.com/hudumadata/facility-cli/internal/lake"
	"github.com/hudumadata/facility-cli/internal/pipeline"
	"github.com/hudumadata/facility-cli/internal/store"
	"github.com/hudumadata/facility-cli/internal/validate"
	"github.com/hudumadata/facility-cli/pkg/geocode"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "facility.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline assembles the full ingestion pipeline over a migrated store.
func initPipeline(ctx context.Context, st store.Store) (*pipeline.Pipeline, error) {
	lk, err := lake.New(st, cfg.Lake)
	if err != nil {
		return nil, eris.Wrap(err, "init lake")
	}

	dd := dedupe.New(cfg.Dedupe)

	val, err := validate.New(cfg.Validate, cfg.Region)
	if err != nil {
		return nil, eris.Wrap(err, "init validator")
	}

	gaz, err := gazetteer.FromStore(ctx, st)
	if err != nil {
		return nil, eris.Wrap(err, "init gazetteer")
	}

	geo := initGeocoder()

	enh := pipeline.NewEnhancer(geo, gaz, st)
	return pipeline.New(lk, dd, val, enh, st, cfg.Dedupe), nil
}

func initGeocoder() geocode.Client {
	timeout := time.Duration(cfg.Geocode.TimeoutSecs) * time.Second
	bounds := geom.NewBounds(geom.XY).
		Set(cfg.Region.MinLon, cfg.Region.MinLat, cfg.Region.MaxLon, cfg.Region.MaxLat)

	return geocode.NewClient(
		geocode.WithProviders(
			geocode.NewNominatim(cfg.Geocode.NominatimBaseURL, cfg.Geocode.UserAgent, timeout),
			geocode.NewPhoton(cfg.Geocode.PhotonBaseURL, timeout),
		),
		geocode.WithRateLimit(cfg.Geocode.RequestsPerSecond),
		geocode.WithBounds(bounds),
		geocode.WithCache(
			time.Duration(cfg.Geocode.CacheTTLHours)*time.Hour,
			cfg.Geocode.CacheMaxEntries,
		),
	)
}
