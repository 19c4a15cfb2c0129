package index

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/zipsearch/internal/model"
	"github.com/sells-group/zipsearch/internal/source"
)

type cityStateKey struct {
	city  string
	state string
}

type bucketKey struct {
	lat int
	lng int
}

// Build consumes the source cursor in one sequential pass and produces the
// three indices, fully normalized so the engine never re-normalizes at query
// time. Rows without a usable zipcode are logged and skipped; a cursor error
// aborts the build (no partial container is ever produced from here because
// Container.Write is atomic).
func Build(ctx context.Context, cur source.Cursor, sourceDesc string) (*Container, error) {
	log := zap.L().With(zap.String("component", "index.builder"))

	c := &Container{
		ZipcodeIndex:   make(map[string]*model.ZipRecord),
		CityStateIndex: []CityStateEntry{},
		CoordinateGrid: []GridEntry{},
	}
	cityStatePos := make(map[cityStateKey]int)
	gridPos := make(map[bucketKey]int)

	var skipped int
	for {
		row, err := cur.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}

		rec := normalizeRow(row)
		if rec.Zipcode == "" {
			skipped++
			log.Warn("skipping row with empty zipcode",
				zap.Stringp("major_city", row.MajorCity),
				zap.Stringp("state", row.State),
			)
			continue
		}

		// Direct index: later duplicate codes overwrite earlier ones
		// (documented last-write-wins policy).
		if _, dup := c.ZipcodeIndex[rec.Zipcode]; dup {
			log.Debug("duplicate zipcode, last write wins", zap.String("zipcode", rec.Zipcode))
		}
		c.ZipcodeIndex[rec.Zipcode] = rec

		// Composite index: only rows with both city and state.
		if rec.MajorCity != nil && rec.State != nil {
			key := cityStateKey{city: *rec.MajorCity, state: *rec.State}
			pos, ok := cityStatePos[key]
			if !ok {
				pos = len(c.CityStateIndex)
				cityStatePos[key] = pos
				c.CityStateIndex = append(c.CityStateIndex, CityStateEntry{City: key.city, State: key.state})
			}
			c.CityStateIndex[pos].Records = append(c.CityStateIndex[pos].Records, rec)
		}

		// Spatial grid: only rows with coordinates.
		if rec.HasCoordinates() {
			latB, lngB := Bucket(*rec.Lat, *rec.Lng)
			key := bucketKey{lat: latB, lng: lngB}
			pos, ok := gridPos[key]
			if !ok {
				pos = len(c.CoordinateGrid)
				gridPos[key] = pos
				c.CoordinateGrid = append(c.CoordinateGrid, GridEntry{LatBucket: latB, LngBucket: lngB})
			}
			c.CoordinateGrid[pos].Records = append(c.CoordinateGrid[pos].Records, rec)
		}
	}

	c.Manifest = Manifest{
		BuildID:     uuid.NewString(),
		BuiltAt:     time.Now().UTC(),
		RecordCount: len(c.ZipcodeIndex),
		Source:      sourceDesc,
	}

	log.Info("index build complete",
		zap.Int("records", len(c.ZipcodeIndex)),
		zap.Int("city_state_keys", len(c.CityStateIndex)),
		zap.Int("grid_buckets", len(c.CoordinateGrid)),
		zap.Int("skipped_rows", skipped),
	)

	return c, nil
}

// normalizeRow applies the build-time normalization rules to one raw row.
func normalizeRow(row *source.Row) *model.ZipRecord {
	rec := &model.ZipRecord{
		Zipcode:               model.PadZipcode(row.Zipcode),
		ZipcodeType:           row.ZipcodeType,
		CommonCityList:        source.DecodeList(row.CommonCityListBlob),
		County:                row.County,
		Lat:                   row.Lat,
		Lng:                   row.Lng,
		Timezone:              row.Timezone,
		RadiusInMiles:         row.RadiusInMiles,
		AreaCodeList:          source.DecodeList(row.AreaCodeListBlob),
		Population:            row.Population,
		PopulationDensity:     row.PopulationDensity,
		LandAreaInSqMi:        row.LandAreaInSqMi,
		WaterAreaInSqMi:       row.WaterAreaInSqMi,
		HousingUnits:          row.HousingUnits,
		OccupiedHousingUnits:  row.OccupiedHousingUnits,
		MedianHomeValue:       row.MedianHomeValue,
		MedianHouseholdIncome: row.MedianHouseholdIncome,
		BoundsWest:            row.BoundsWest,
		BoundsEast:            row.BoundsEast,
		BoundsNorth:           row.BoundsNorth,
		BoundsSouth:           row.BoundsSouth,
	}

	if row.MajorCity != nil {
		if city := model.TitleCaseCity(*row.MajorCity); city != "" {
			rec.MajorCity = &city
		}
	}
	if row.PostOfficeCity != nil {
		if city := model.TitleCaseCity(*row.PostOfficeCity); city != "" {
			rec.PostOfficeCity = &city
		}
	}
	if row.State != nil {
		if st := model.UpperState(*row.State); st != "" {
			rec.State = &st
		}
	}

	return rec
}
