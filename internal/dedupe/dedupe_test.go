package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
)

func testDedupeConfig() config.DedupeConfig {
	return config.DedupeConfig{
		FuzzyThreshold:    0.85,
		GeoNameThreshold:  0.70,
		GeoDistanceDeg:    0.1,
		CleaningThreshold: 0.5,
	}
}

func facility(name, county, constituency string) model.Record {
	return model.Record{
		Type: model.RecordTypeFacility,
		Name: name,
		Location: model.Location{
			County:       county,
			Constituency: constituency,
		},
	}
}

func withCoords(rec model.Record, lat, lon float64) model.Record {
	rec.SetCoordinates(lat, lon)
	return rec
}

func TestFindDuplicates_ExactMatch(t *testing.T) {
	d := New(testDedupeConfig())
	records := []model.Record{
		facility("Kenyatta National Hospital", "Nairobi", "Dagoretti North"),
		facility("  kenyatta   national hospital ", "NAIROBI", "dagoretti north"),
	}

	groups := d.FindDuplicates(records)
	require.Len(t, groups, 1)
	assert.Equal(t, model.MatchExact, groups[0].Strategy)
	assert.Equal(t, []int{0, 1}, groups[0].Members)
	assert.Equal(t, 1.0, groups[0].Similarity)
}

func TestFindDuplicates_FuzzySpellingVariants(t *testing.T) {
	d := New(testDedupeConfig())
	records := []model.Record{
		facility("ABC Health Center", "Kiambu", ""),
		facility("ABC Health Centre", "Kiambu", ""),
	}

	groups := d.FindDuplicates(records)
	require.Len(t, groups, 1)
	assert.Equal(t, model.MatchFuzzyName, groups[0].Strategy)
	assert.GreaterOrEqual(t, groups[0].Similarity, 0.85)
}

func TestFindDuplicates_UnrelatedNamesNeverGrouped(t *testing.T) {
	d := New(testDedupeConfig())
	records := []model.Record{
		facility("Nairobi Hospital", "Nairobi", "Westlands"),
		facility("Mombasa Clinic", "Mombasa", "Nyali"),
	}

	groups := d.FindDuplicates(records)
	assert.Empty(t, groups)
}

func TestFindDuplicates_GeoProximity(t *testing.T) {
	d := New(testDedupeConfig())
	records := []model.Record{
		withCoords(facility("Site A", "", ""), -1.286, 36.817),
		withCoords(facility("Completely Different", "", ""), -1.290, 36.820),
	}

	groups := d.FindDuplicates(records)
	require.Len(t, groups, 1)
	assert.Equal(t, model.MatchGeo, groups[0].Strategy)
}

func TestFindDuplicates_SameAdminAreaLowerNameBar(t *testing.T) {
	d := New(testDedupeConfig())
	// Similarity between these sits between 0.70 and 0.85, so the pair
	// only groups because county and constituency agree.
	records := []model.Record{
		facility("Ruiru Health Clinic", "Kiambu", "Ruiru"),
		facility("Ruiru Health Post", "Kiambu", "Ruiru"),
	}

	sim := NameSimilarity("Ruiru Health Clinic", "Ruiru Health Post")
	require.Less(t, sim, 0.85)
	require.GreaterOrEqual(t, sim, 0.70)

	groups := d.FindDuplicates(records)
	require.Len(t, groups, 1)
	assert.Equal(t, model.MatchGeo, groups[0].Strategy)
}

func TestFindDuplicates_FarApartCoordinatesNotGrouped(t *testing.T) {
	d := New(testDedupeConfig())
	records := []model.Record{
		withCoords(facility("Clinic One", "", ""), -1.28, 36.82),
		withCoords(facility("Dispensary Two", "", ""), -4.04, 39.66),
	}

	assert.Empty(t, d.FindDuplicates(records))
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("The ABC Clinic", "ABC Clinic"))
	assert.GreaterOrEqual(t, NameSimilarity("ABC Health Center", "ABC Health Centre"), 0.85)
	assert.Less(t, NameSimilarity("Nairobi Hospital", "Mombasa Clinic"), 0.85)
	assert.Equal(t, 0.0, NameSimilarity("", "Something"))
}

func TestSelectBestRecord_PrefersCompleteness(t *testing.T) {
	d := New(testDedupeConfig())
	sparse := facility("KNH", "", "")
	full := withCoords(facility("Kenyatta National Hospital", "Nairobi", "Dagoretti North"), -1.3, 36.8)
	full.Contacts = []model.Contact{{Type: "phone", Value: "+254202726300"}}
	full.Location.Ward = "Kilimani"

	records := []model.Record{sparse, full}
	best := d.SelectBestRecord(records, []int{0, 1})
	assert.Equal(t, 1, best)
}

func TestMergeRecords_UnionsContactsAndServices(t *testing.T) {
	d := New(testDedupeConfig())

	a := facility("ABC Health Center", "Kiambu", "Ruiru")
	a.Contacts = []model.Contact{
		{Type: "phone", Value: "+254711000111"},
		{Type: "email", Value: "info@abc.ke"},
	}
	a.Services = []model.Service{{Category: "maternity", Description: "Antenatal care"}}

	b := facility("ABC Health Centre", "Kiambu", "Ruiru")
	b.Contacts = []model.Contact{
		{Type: "phone", Value: "+254711000111"}, // duplicate
		{Type: "phone", Value: "+254722000222"},
	}
	b.Services = []model.Service{
		{Category: "maternity", Description: "Antenatal care"}, // duplicate
		{Category: "outpatient", Description: "General consultation"},
	}

	records := []model.Record{a, b}
	merged := d.MergeRecords(records, []int{0, 1}, 0)

	assert.Len(t, merged.Contacts, 3)
	assert.Len(t, merged.Services, 2)
	assert.Equal(t, "2", merged.Extra["merged_count"])
	assert.Contains(t, merged.Extra["merged_from"], "ABC Health Centre")

	// No two contacts share (type, value).
	seen := make(map[string]bool)
	for _, c := range merged.Contacts {
		key := c.Type + "|" + c.Value
		assert.False(t, seen[key], "duplicate contact %s", key)
		seen[key] = true
	}
}

func TestMergeRecords_BackfillsMissingFields(t *testing.T) {
	d := New(testDedupeConfig())

	best := facility("ABC Health Center", "Kiambu", "")
	other := withCoords(facility("ABC Health Centre", "Kiambu", "Ruiru"), -1.15, 36.96)
	other.Address = "Along Kiambu Road"

	records := []model.Record{best, other}
	merged := d.MergeRecords(records, []int{0, 1}, 0)

	assert.Equal(t, "Ruiru", merged.Location.Constituency)
	assert.Equal(t, "Along Kiambu Road", merged.Address)
	_, _, ok := merged.Coordinates()
	assert.True(t, ok)
}

func TestClean(t *testing.T) {
	d := New(testDedupeConfig())

	rec := facility("  the  nairobi  WOMENS hospital ", "NAIROBI COUNTY", "westlands")
	rec.Contacts = []model.Contact{
		{Type: "phone", Value: "0711 000 111"},
		{Type: "phone", Value: "711000222"},
		{Type: "email", Value: " Info@Example.KE "},
	}

	cleaned := d.Clean(rec)
	assert.Equal(t, "Nairobi Womens Hospital", cleaned.Name)
	assert.Equal(t, "Nairobi", cleaned.Location.County)
	assert.Equal(t, "Westlands", cleaned.Location.Constituency)
	assert.Equal(t, "+254711000111", cleaned.Contacts[0].Value)
	assert.Equal(t, "+254711000222", cleaned.Contacts[1].Value)
	assert.Equal(t, "info@example.ke", cleaned.Contacts[2].Value)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+254711000111", NormalizePhone("0711000111"))
	assert.Equal(t, "+254711000111", NormalizePhone("+254 711 000 111"))
	assert.Equal(t, "+254711000111", NormalizePhone("711000111"))
	assert.Equal(t, "not a phone", NormalizePhone(" not a phone "))
}
