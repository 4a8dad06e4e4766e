// Package mart projects enriched records into business-ready data mart
// rows, one mart per registry variant.
package mart

import (
	"time"

	"github.com/hudumadata/facility-cli/internal/model"
)

// Mart type names served downstream.
const (
	MartFacilities  = "facilities"
	MartGBVServices = "gbv_services"
	MartShelters    = "shelters"
	MartPolicePosts = "police_posts"
	MartGeneral     = "general"
)

// TypeFor maps a record variant to its mart.
func TypeFor(t model.RecordType) string {
	switch t {
	case model.RecordTypeFacility:
		return MartFacilities
	case model.RecordTypeGBVOrganization:
		return MartGBVServices
	case model.RecordTypeShelter:
		return MartShelters
	case model.RecordTypePoliceStation:
		return MartPolicePosts
	default:
		return MartGeneral
	}
}

// Build projects an enriched record into its mart row. The payload
// carries the enhanced location so downstream consumers never need the
// enrichment side tables.
func Build(enriched model.EnrichedRecord) model.MartRecord {
	payload := enriched.Payload.Clone()
	if payload.Location.County == "" {
		payload.Location.County = enriched.Geographic.County
	}
	if payload.Location.Constituency == "" {
		payload.Location.Constituency = enriched.Geographic.Constituency
	}
	if payload.Location.Ward == "" {
		payload.Location.Ward = enriched.Geographic.Ward
	}
	if _, _, ok := payload.Coordinates(); !ok &&
		enriched.Geographic.Latitude != nil && enriched.Geographic.Longitude != nil {
		payload.SetCoordinates(*enriched.Geographic.Latitude, *enriched.Geographic.Longitude)
	}

	return model.MartRecord{
		DataID:   enriched.DataID,
		MartType: TypeFor(payload.Type),
		Payload:  payload,
		IsServed: true,
		ServingMetadata: map[string]any{
			"quality_score":  enriched.FinalQualityScore,
			"geo_confidence": enriched.Geographic.Confidence,
			"enhancements":   enriched.EnhancementsApplied,
		},
		BuiltAt: time.Now().UTC(),
	}
}
