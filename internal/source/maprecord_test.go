package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func TestRecordFromMap_FlatFields(t *testing.T) {
	rec := recordFromMap(map[string]string{
		"Facility Name": "Coast General Hospital",
		"County":        "Mombasa",
		"Sub County":    "Mvita",
		"ward":          "Tononoka",
		"Latitude":      "-4.0435",
		"Longitude":     "39.6682",
		"Phone Number":  "0712345678",
		"Email":         "info@coastgeneral.go.ke",
		"Services":      "maternity; outpatient",
		"Bed Capacity":  "700",
	}, model.RecordTypeFacility)

	assert.Equal(t, "Coast General Hospital", rec.Name)
	assert.Equal(t, "Mombasa", rec.Location.County)
	assert.Equal(t, "Mvita", rec.Location.Constituency)
	assert.Equal(t, "Tononoka", rec.Location.Ward)
	assert.Equal(t, 700, rec.Capacity)

	lat, lon, ok := rec.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, -4.0435, lat, 0.0001)
	assert.InDelta(t, 39.6682, lon, 0.0001)

	assert.Len(t, rec.Contacts, 2)
	assert.Len(t, rec.Services, 2)
}

func TestRecordFromMap_NestedLocationFields(t *testing.T) {
	rec := recordFromMap(map[string]string{
		"name":               "Ruiru Shelter",
		"location_county":    "Kiambu",
		"location_ward":      "Biashara",
		"location_latitude":  "-1.15",
		"location_longitude": "36.96",
	}, model.RecordTypeShelter)

	assert.Equal(t, "Kiambu", rec.Location.County)
	assert.Equal(t, "Biashara", rec.Location.Ward)
	_, _, ok := rec.Coordinates()
	assert.True(t, ok)
}

func TestRecordFromMap_LatitudeWithoutLongitudeDropped(t *testing.T) {
	rec := recordFromMap(map[string]string{
		"name": "Half Coordinates",
		"lat":  "-1.29",
	}, model.RecordTypeFacility)

	_, _, ok := rec.Coordinates()
	assert.False(t, ok)
}

func TestRecordFromMap_TypeTagOverridesDefault(t *testing.T) {
	rec := recordFromMap(map[string]string{
		"name": "Central Police Station",
		"type": "police_station",
	}, model.RecordTypeFacility)

	assert.Equal(t, model.RecordTypePoliceStation, rec.Type)
}

func TestRecordFromMap_UnknownFieldsGoToExtra(t *testing.T) {
	rec := recordFromMap(map[string]string{
		"name":         "Some Facility",
		"mfl_code":     "12345",
		"owner_type":   "Ministry of Health",
		"invalid_lat":  "not-a-number",
	}, model.RecordTypeFacility)

	assert.Equal(t, "12345", rec.Extra["mfl_code"])
	assert.Equal(t, "Ministry of Health", rec.Extra["owner_type"])
}

func TestCanonicalField(t *testing.T) {
	assert.Equal(t, "name", canonicalField("Facility Name"))
	assert.Equal(t, "latitude", canonicalField("LAT"))
	assert.Equal(t, "phone", canonicalField("Telephone"))
	assert.Equal(t, "mfl_code", canonicalField("MFL Code"))
}
