package source

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/zipsearch/internal/config"
)

// Row is one raw record from the relational source, prior to normalization.
// Nullable columns are pointers; the two *_list columns carry their compact
// encoded form and are decoded by DecodeList.
type Row struct {
	Zipcode               string
	ZipcodeType           *string
	MajorCity             *string
	PostOfficeCity        *string
	CommonCityListBlob    []byte
	County                *string
	State                 *string
	Lat                   *float64
	Lng                   *float64
	Timezone              *string
	RadiusInMiles         *float64
	AreaCodeListBlob      []byte
	Population            *int64
	PopulationDensity     *float64
	LandAreaInSqMi        *float64
	WaterAreaInSqMi       *float64
	HousingUnits          *int64
	OccupiedHousingUnits  *int64
	MedianHomeValue       *int64
	MedianHouseholdIncome *int64
	BoundsWest            *float64
	BoundsEast            *float64
	BoundsNorth           *float64
	BoundsSouth           *float64
}

// Cursor streams rows from a relational source in source order.
type Cursor interface {
	// Next returns the next row, or (nil, nil) once the source is exhausted.
	Next(ctx context.Context) (*Row, error)
	Close() error
}

// selectColumns is the fixed 24-column projection every driver reads.
const selectColumns = `zipcode, zipcode_type, major_city, post_office_city, common_city_list,
	county, state, lat, lng, timezone, radius_in_miles, area_code_list,
	population, population_density, land_area_in_sqmi, water_area_in_sqmi,
	housing_units, occupied_housing_units, median_home_value,
	median_household_income, bounds_west, bounds_east, bounds_north, bounds_south`

// Open opens a cursor over the configured source. The driver selects the
// backend the same way the store driver switch does elsewhere in this org's
// tooling: "sqlite" (default) or "postgres".
func Open(ctx context.Context, cfg config.SourceConfig) (Cursor, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.DSN)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("source: unknown driver %q", cfg.Driver)
	}
}

// DecodeList decodes the compact encoded list columns (common_city_list,
// area_code_list) into an ordered list of strings. Empty, absent, or
// undecodable blobs yield nil, never an error: a record without aliases or
// area codes is a normal record.
func DecodeList(blob []byte) []string {
	s := strings.TrimSpace(string(blob))
	if s == "" {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
