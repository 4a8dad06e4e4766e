package gazetteer

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/store"
)

// Column names vary across published ward boundary shapefiles.
var (
	countyFields       = []string{"COUNTY", "COUNTY_NAM", "county"}
	constituencyFields = []string{"CONSTITUEN", "CONST_NAM", "SUBCOUNTY", "constituency"}
	wardFields         = []string{"WARD", "NAME", "ward"}
)

// ImportWards loads ward-level admin units from a boundaries shapefile
// into the store and returns the number of new units persisted. The
// ward centroid is approximated by its bounding-box center.
func ImportWards(ctx context.Context, st store.Store, shpPath string) (int, error) {
	log := zap.L().With(zap.String("component", "gazetteer.import"))

	reader, err := shp.Open(shpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "gazetteer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	countyIdx := firstFieldIndex(reader, countyFields)
	wardIdx := firstFieldIndex(reader, wardFields)
	constituencyIdx := firstFieldIndex(reader, constituencyFields)
	if countyIdx < 0 || wardIdx < 0 {
		return 0, eris.New("gazetteer: shapefile missing county or ward field")
	}

	var units []model.AdminUnit
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}

		unit := model.AdminUnit{
			County: strings.TrimSpace(reader.Attribute(countyIdx)),
			Ward:   strings.TrimSpace(reader.Attribute(wardIdx)),
		}
		if constituencyIdx >= 0 {
			unit.Constituency = strings.TrimSpace(reader.Attribute(constituencyIdx))
		}
		if unit.County == "" || unit.Ward == "" {
			continue
		}

		box := shape.BBox()
		unit.Latitude = (box.MinY + box.MaxY) / 2
		unit.Longitude = (box.MinX + box.MaxX) / 2
		units = append(units, unit)
	}

	inserted, err := st.InsertAdminUnits(ctx, units)
	if err != nil {
		return 0, err
	}
	log.Info("ward boundaries imported",
		zap.Int("read", len(units)),
		zap.Int("inserted", inserted))
	return inserted, nil
}

func firstFieldIndex(reader *shp.Reader, names []string) int {
	for i, f := range reader.Fields() {
		field := strings.TrimRight(f.String(), "\x00")
		for _, name := range names {
			if strings.EqualFold(field, name) {
				return i
			}
		}
	}
	return -1
}
