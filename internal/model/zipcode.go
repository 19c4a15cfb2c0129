package model

import (
	"github.com/twpayne/go-geom"
)

// ZipRecord holds the demographic and geographic data for one ZIP code.
// Records are built once by the index builder and are read-only afterwards;
// callers must treat every field as immutable.
//
// Optional fields are pointers (or nil slices) so that "value absent in the
// source" stays distinguishable from a zero value. Lat and Lng are either
// both set or both nil.
type ZipRecord struct {
	// Zipcode is the 5-character zero-padded code and the record's identity.
	Zipcode               string   `json:"zipcode"`
	ZipcodeType           *string  `json:"zipcode_type,omitempty"`
	MajorCity             *string  `json:"major_city,omitempty"`
	PostOfficeCity        *string  `json:"post_office_city,omitempty"`
	CommonCityList        []string `json:"common_city_list,omitempty"`
	County                *string  `json:"county,omitempty"`
	State                 *string  `json:"state,omitempty"`
	Lat                   *float64 `json:"lat,omitempty"`
	Lng                   *float64 `json:"lng,omitempty"`
	Timezone              *string  `json:"timezone,omitempty"`
	RadiusInMiles         *float64 `json:"radius_in_miles,omitempty"`
	AreaCodeList          []string `json:"area_code_list,omitempty"`
	Population            *int64   `json:"population,omitempty"`
	PopulationDensity     *float64 `json:"population_density,omitempty"`
	LandAreaInSqMi        *float64 `json:"land_area_in_sqmi,omitempty"`
	WaterAreaInSqMi       *float64 `json:"water_area_in_sqmi,omitempty"`
	HousingUnits          *int64   `json:"housing_units,omitempty"`
	OccupiedHousingUnits  *int64   `json:"occupied_housing_units,omitempty"`
	MedianHomeValue       *int64   `json:"median_home_value,omitempty"`
	MedianHouseholdIncome *int64   `json:"median_household_income,omitempty"`
	BoundsWest            *float64 `json:"bounds_west,omitempty"`
	BoundsEast            *float64 `json:"bounds_east,omitempty"`
	BoundsNorth           *float64 `json:"bounds_north,omitempty"`
	BoundsSouth           *float64 `json:"bounds_south,omitempty"`
}

// HasCoordinates reports whether the record carries a lat/lng point.
func (z *ZipRecord) HasCoordinates() bool {
	return z.Lat != nil && z.Lng != nil
}

// Bounds returns the record's bounding box as a go-geom Bounds in XY
// (lng/lat) order, or nil if any of the four bounds fields is absent.
func (z *ZipRecord) Bounds() *geom.Bounds {
	if z.BoundsWest == nil || z.BoundsEast == nil || z.BoundsNorth == nil || z.BoundsSouth == nil {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	b.Set(*z.BoundsWest, *z.BoundsSouth, *z.BoundsEast, *z.BoundsNorth)
	return b
}

// City returns the major city, or "" if absent.
func (z *ZipRecord) City() string {
	if z.MajorCity == nil {
		return ""
	}
	return *z.MajorCity
}

// StateCode returns the 2-letter state code, or "" if absent.
func (z *ZipRecord) StateCode() string {
	if z.State == nil {
		return ""
	}
	return *z.State
}
