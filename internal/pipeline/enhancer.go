package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/gazetteer"
	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
	"github.com/hudumadata/facility-cli/pkg/geocode"
)

// Enhancer backfills coordinates and the administrative hierarchy on
// validated records. Enhancement never fails a record: when every geocoding
// provider is down the record proceeds with whatever data it had.
type Enhancer struct {
	geo geocode.Client
	gaz *gazetteer.Gazetteer
	st  store.Store
	log *zap.Logger
}

// NewEnhancer wires the geocoding client and gazetteer. geo may be nil when
// outbound geocoding is disabled; hierarchy backfill still runs.
func NewEnhancer(geo geocode.Client, gaz *gazetteer.Gazetteer, st store.Store) *Enhancer {
	return &Enhancer{
		geo: geo,
		gaz: gaz,
		st:  st,
		log: zap.L().With(zap.String("component", "enhancer")),
	}
}

// Enhance resolves geographic data for one record and writes the audit row.
// The returned enhancement names feed the enriched record's provenance. A
// non-nil error means every geocoding provider failed; the record still
// proceeds with whatever data it had, the error is reported so callers can
// log the degraded enhancement.
func (e *Enhancer) Enhance(ctx context.Context, dataID string, rec model.Record) (model.GeographicData, []string, error) {
	geo := model.GeographicData{
		County:       rec.Location.County,
		Constituency: rec.Location.Constituency,
		Ward:         rec.Location.Ward,
	}
	var applied []string
	var geoErr error

	if lat, lon, ok := rec.Coordinates(); ok {
		geo.Latitude = &lat
		geo.Longitude = &lon
	}

	if e.backfillHierarchy(&geo, rec) {
		applied = append(applied, "hierarchy_backfill")
	}

	audit := model.GeographicEnhancement{
		DataID:      dataID,
		Address:     rec.Address,
		AttemptedAt: time.Now().UTC(),
	}

	if geo.Latitude == nil && e.geo != nil {
		res, err := e.geo.Geocode(ctx, geocode.Query{
			Address:      addressText(rec),
			County:       geo.County,
			Constituency: geo.Constituency,
			Ward:         geo.Ward,
		})
		switch {
		case err != nil:
			// All providers failed. Not fatal; the record proceeds,
			// but the caller gets to see the degraded enhancement.
			geoErr = err
			audit.Error = err.Error()
			e.log.Warn("geocoding unavailable",
				zap.String("data_id", dataID), zap.Error(err))
		case res.Matched:
			geo.Latitude = &res.Latitude
			geo.Longitude = &res.Longitude
			geo.Accuracy = res.Accuracy
			geo.Service = res.Source
			applied = append(applied, "geocoded")
		}
	}

	geo.Confidence = confidence(geo)

	audit.Success = geo.Latitude != nil && geo.Longitude != nil
	audit.Service = geo.Service
	audit.Latitude = geo.Latitude
	audit.Longitude = geo.Longitude
	audit.Confidence = geo.Confidence
	if err := e.st.InsertEnhancement(ctx, audit); err != nil {
		e.log.Warn("enhancement audit write failed",
			zap.String("data_id", dataID), zap.Error(err))
	}

	return geo, applied, geoErr
}

// backfillHierarchy fills missing admin-hierarchy fields from address and
// name text. Reports whether anything was filled.
func (e *Enhancer) backfillHierarchy(geo *model.GeographicData, rec model.Record) bool {
	if e.gaz == nil {
		return false
	}
	if geo.County != "" && geo.Constituency != "" && geo.Ward != "" {
		return false
	}
	match := e.gaz.MatchAddress(rec.Address + " " + rec.Name)
	filled := false
	if geo.County == "" && match.County != "" {
		geo.County = match.County
		filled = true
	}
	if geo.Constituency == "" && match.Constituency != "" {
		geo.Constituency = match.Constituency
		filled = true
	}
	if geo.Ward == "" && match.Ward != "" {
		geo.Ward = match.Ward
		filled = true
	}
	return filled
}

// confidence scores the geographic data from its constituent signals:
// 0.4 for a resolving service, 0.3 for coordinates, 0.2 county,
// 0.2 constituency, 0.1 ward, capped at 1.0.
func confidence(geo model.GeographicData) float64 {
	score := 0.0
	if geo.Service != "" {
		score += 0.4
	}
	if geo.Latitude != nil && geo.Longitude != nil {
		score += 0.3
	}
	if geo.County != "" {
		score += 0.2
	}
	if geo.Constituency != "" {
		score += 0.2
	}
	if geo.Ward != "" {
		score += 0.1
	}
	return model.Clamp01(score)
}

func addressText(rec model.Record) string {
	if rec.Address != "" {
		return rec.Address
	}
	return strings.TrimSpace(rec.Name)
}
