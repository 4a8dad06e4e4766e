// Package gazetteer resolves Kenyan administrative unit names found in
// free-text addresses. It carries an embedded seed of the 47 counties
// and can be extended with ward-level units from the store or from a
// boundaries shapefile.
package gazetteer

import (
	"context"
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
)

//go:embed counties.yaml
var countiesYAML []byte

// Match is the admin hierarchy recovered from an address.
type Match struct {
	County       string
	Constituency string
	Ward         string
}

// Gazetteer is an in-memory name lookup table over admin units.
type Gazetteer struct {
	units    []model.AdminUnit
	counties map[string]model.AdminUnit
	log      *zap.Logger
}

// New builds a Gazetteer from the embedded county seed plus any extra
// units.
func New(extra []model.AdminUnit) (*Gazetteer, error) {
	var seed struct {
		Counties []model.AdminUnit `yaml:"counties"`
	}
	if err := yaml.Unmarshal(countiesYAML, &seed); err != nil {
		return nil, eris.Wrap(err, "gazetteer: parse county seed")
	}

	g := &Gazetteer{
		counties: make(map[string]model.AdminUnit),
		log:      zap.L().With(zap.String("component", "gazetteer")),
	}
	g.add(seed.Counties)
	g.add(extra)
	return g, nil
}

// FromStore builds a Gazetteer from the seed plus all persisted admin
// units (e.g. wards loaded from a boundaries shapefile).
func FromStore(ctx context.Context, st store.Store) (*Gazetteer, error) {
	units, err := st.ListAdminUnits(ctx)
	if err != nil {
		return nil, err
	}
	return New(units)
}

func (g *Gazetteer) add(units []model.AdminUnit) {
	for _, u := range units {
		g.units = append(g.units, u)
		if u.County != "" {
			key := normalizeUnit(u.County)
			if _, exists := g.counties[key]; !exists {
				g.counties[key] = u
			}
		}
	}
}

// LookupCounty resolves a county by name, tolerating case differences
// and a trailing "County" suffix.
func (g *Gazetteer) LookupCounty(name string) (model.AdminUnit, bool) {
	u, ok := g.counties[normalizeUnit(name)]
	return u, ok
}

// MatchAddress scans free text for known admin unit names. The most
// specific unit wins: a ward match fills its whole hierarchy, a county
// match fills only the county.
func (g *Gazetteer) MatchAddress(text string) Match {
	if strings.TrimSpace(text) == "" {
		return Match{}
	}
	haystack := " " + normalizeUnit(text) + " "

	var m Match
	for _, u := range g.units {
		if m.Ward == "" && u.Ward != "" && containsName(haystack, u.Ward) {
			m = Match{County: u.County, Constituency: u.Constituency, Ward: u.Ward}
			continue
		}
		if m.Ward == "" && m.Constituency == "" && u.Constituency != "" && containsName(haystack, u.Constituency) {
			m.County = u.County
			m.Constituency = u.Constituency
			continue
		}
		if m.County == "" && u.County != "" && containsName(haystack, u.County) {
			m.County = u.County
		}
	}
	return m
}

// containsName matches a unit name as whole words inside the haystack.
func containsName(haystack, name string) bool {
	n := normalizeUnit(name)
	if n == "" {
		return false
	}
	return strings.Contains(haystack, " "+n+" ")
}

func normalizeUnit(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " county")
	return strings.Join(strings.Fields(s), " ")
}
