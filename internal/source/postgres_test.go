package source

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sourceColumns = []string{
	"zipcode", "zipcode_type", "major_city", "post_office_city", "common_city_list",
	"county", "state", "lat", "lng", "timezone", "radius_in_miles", "area_code_list",
	"population", "population_density", "land_area_in_sqmi", "water_area_in_sqmi",
	"housing_units", "occupied_housing_units", "median_home_value",
	"median_household_income", "bounds_west", "bounds_east", "bounds_north", "bounds_south",
}

func ptr[T any](v T) *T { return &v }

func TestPostgresCursor_StreamsRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(sourceColumns).
		AddRow(
			ptr("90210"), ptr("STANDARD"), ptr("beverly hills"), ptr("Beverly Hills"), []byte(`["Beverly Hills"]`),
			ptr("Los Angeles County"), ptr("ca"), ptr(34.0901), ptr(-118.4065), ptr("America/Los_Angeles"),
			ptr(3.0), []byte(`["310"]`),
			ptr(int64(21733)), ptr(3800.0), ptr(5.71), ptr(0.0),
			ptr(int64(10327)), ptr(int64(9202)), ptr(int64(1000001)), ptr(int64(132131)),
			ptr(-118.443249), ptr(-118.371859), ptr(34.132418), ptr(34.057599),
		).
		AddRow(
			ptr("99999"), nil, nil, nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil, nil,
		)
	mock.ExpectQuery("SELECT (.+) FROM simple_zipcode").WillReturnRows(rows)

	cur, err := NewPostgresCursor(context.Background(), mock)
	require.NoError(t, err)
	defer cur.Close()

	first, err := cur.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "90210", first.Zipcode)
	require.NotNil(t, first.MajorCity)
	assert.Equal(t, "beverly hills", *first.MajorCity)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, 34.0901, *first.Lat, 1e-9)
	assert.Equal(t, []string{"Beverly Hills"}, DecodeList(first.CommonCityListBlob))
	require.NotNil(t, first.MedianHouseholdIncome)
	assert.Equal(t, int64(132131), *first.MedianHouseholdIncome)
	require.NotNil(t, first.BoundsSouth)
	assert.InDelta(t, 34.057599, *first.BoundsSouth, 1e-9)

	second, err := cur.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "99999", second.Zipcode)
	assert.Nil(t, second.MajorCity)
	assert.Nil(t, second.Lat)
	assert.Nil(t, second.Population)

	// Exhausted.
	done, err := cur.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestPostgresCursor_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM simple_zipcode").WillReturnError(assert.AnError)

	_, err = NewPostgresCursor(context.Background(), mock)
	assert.Error(t, err)
}

func TestPostgresCursor_CancelledContext(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM simple_zipcode").
		WillReturnRows(pgxmock.NewRows(sourceColumns))

	cur, err := NewPostgresCursor(context.Background(), mock)
	require.NoError(t, err)
	defer cur.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cur.Next(ctx)
	assert.Error(t, err)
}
