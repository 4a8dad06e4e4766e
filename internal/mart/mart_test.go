package mart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func TestTypeFor(t *testing.T) {
	assert.Equal(t, MartFacilities, TypeFor(model.RecordTypeFacility))
	assert.Equal(t, MartGBVServices, TypeFor(model.RecordTypeGBVOrganization))
	assert.Equal(t, MartShelters, TypeFor(model.RecordTypeShelter))
	assert.Equal(t, MartPolicePosts, TypeFor(model.RecordTypePoliceStation))
	assert.Equal(t, MartGeneral, TypeFor(model.RecordTypeContact))
	assert.Equal(t, MartGeneral, TypeFor(model.RecordType("whatever")))
}

func TestBuild_ProjectsEnhancedLocation(t *testing.T) {
	lat, lon := -1.2921, 36.8219
	enriched := model.EnrichedRecord{
		DataID: "moh_1700000000_abcd1234",
		Payload: model.Record{
			Type: model.RecordTypeFacility,
			Name: "Kenyatta National Hospital",
			Location: model.Location{
				County: "Nairobi",
			},
		},
		EnhancementsApplied: []string{"geocoded", "hierarchy_backfill"},
		Geographic: model.GeographicData{
			County:       "Nairobi",
			Constituency: "Dagoretti North",
			Ward:         "Kilimani",
			Latitude:     &lat,
			Longitude:    &lon,
			Confidence:   0.9,
		},
		FinalQualityScore: 0.92,
	}

	row := Build(enriched)

	assert.Equal(t, enriched.DataID, row.DataID)
	assert.Equal(t, MartFacilities, row.MartType)
	assert.True(t, row.IsServed)
	assert.WithinDuration(t, time.Now(), row.BuiltAt, 5*time.Second)

	assert.Equal(t, "Nairobi", row.Payload.Location.County)
	assert.Equal(t, "Dagoretti North", row.Payload.Location.Constituency)
	assert.Equal(t, "Kilimani", row.Payload.Location.Ward)
	gotLat, gotLon, ok := row.Payload.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, lat, gotLat, 1e-9)
	assert.InDelta(t, lon, gotLon, 1e-9)

	assert.Equal(t, 0.92, row.ServingMetadata["quality_score"])
	assert.Equal(t, 0.9, row.ServingMetadata["geo_confidence"])
}

func TestBuild_KeepsSourceCoordinates(t *testing.T) {
	enriched := model.EnrichedRecord{
		DataID: "x",
		Payload: model.Record{
			Type: model.RecordTypeShelter,
			Name: "Haven Shelter",
		},
	}
	enriched.Payload.SetCoordinates(-0.1, 34.7)
	badLat, badLon := 51.5, -0.12
	enriched.Geographic.Latitude = &badLat
	enriched.Geographic.Longitude = &badLon

	row := Build(enriched)

	lat, lon, ok := row.Payload.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, -0.1, lat, 1e-9)
	assert.InDelta(t, 34.7, lon, 1e-9)
	assert.Equal(t, MartShelters, row.MartType)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	enriched := model.EnrichedRecord{
		Payload: model.Record{Type: model.RecordTypeFacility, Name: "Clinic"},
		Geographic: model.GeographicData{
			County: "Kisumu",
		},
	}

	row := Build(enriched)

	assert.Equal(t, "Kisumu", row.Payload.Location.County)
	assert.Empty(t, enriched.Payload.Location.County)
}
