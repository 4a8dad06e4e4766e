package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func TestLookupCounty(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	u, ok := g.LookupCounty("Nairobi")
	require.True(t, ok)
	assert.InDelta(t, -1.29, u.Latitude, 0.01)

	_, ok = g.LookupCounty("NAIROBI COUNTY")
	assert.True(t, ok, "suffix and casing are tolerated")

	_, ok = g.LookupCounty("Atlantis")
	assert.False(t, ok)
}

func TestSeedCoversAllCounties(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)
	assert.Len(t, g.counties, 47)
}

func TestMatchAddress_CountyOnly(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	m := g.MatchAddress("Along Moi Avenue, Mombasa")
	assert.Equal(t, "Mombasa", m.County)
	assert.Empty(t, m.Constituency)
	assert.Empty(t, m.Ward)
}

func TestMatchAddress_WardFillsHierarchy(t *testing.T) {
	extra := []model.AdminUnit{
		{County: "Kiambu", Constituency: "Ruiru", Ward: "Biashara", Latitude: -1.15, Longitude: 36.96},
	}
	g, err := New(extra)
	require.NoError(t, err)

	m := g.MatchAddress("Biashara shopping centre, off Kiambu Road")
	assert.Equal(t, "Kiambu", m.County)
	assert.Equal(t, "Ruiru", m.Constituency)
	assert.Equal(t, "Biashara", m.Ward)
}

func TestMatchAddress_NoMatch(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	m := g.MatchAddress("Unit 5, Somewhere Street")
	assert.Equal(t, Match{}, m)
}

func TestMatchAddress_WholeWordOnly(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	// "Embuvale" must not match the Embu county name.
	m := g.MatchAddress("Embuvale Estate")
	assert.Empty(t, m.County)
}
