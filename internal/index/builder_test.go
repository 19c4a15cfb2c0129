package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/zipsearch/internal/model"
	"github.com/sells-group/zipsearch/internal/source"
)

// memCursor replays a fixed slice of rows, standing in for the relational
// source.
type memCursor struct {
	rows []*source.Row
	pos  int
}

func (m *memCursor) Next(ctx context.Context) (*source.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.pos >= len(m.rows) {
		return nil, nil
	}
	row := m.rows[m.pos]
	m.pos++
	return row, nil
}

func (m *memCursor) Close() error { return nil }

func ptr[T any](v T) *T { return &v }

func row(code, city, state string, lat, lng *float64) *source.Row {
	r := &source.Row{Zipcode: code, Lat: lat, Lng: lng}
	if city != "" {
		r.MajorCity = &city
	}
	if state != "" {
		r.State = &state
	}
	return r
}

func fixtureRows() []*source.Row {
	return []*source.Row{
		row("90210", "beverly hills", "ca", ptr(34.0901), ptr(-118.4065)),
		row("90211", "beverly hills", "ca", ptr(34.0650), ptr(-118.3830)),
		row("90001", "los angeles", "CA", ptr(33.9731), ptr(-118.2479)),
		row("62701", "springfield", "il", ptr(39.7990), ptr(-89.6440)),
		row("1103", "springfield", "ma", ptr(42.1015), ptr(-72.5898)),
		row("10001", "new york", "ny", ptr(40.7506), ptr(-73.9972)),
	}
}

func TestBuild_NormalizesFields(t *testing.T) {
	rows := []*source.Row{
		{
			Zipcode:            " 210 ",
			MajorCity:          ptr("  beverly hills "),
			PostOfficeCity:     ptr("BEVERLY HILLS"),
			State:              ptr(" ca "),
			CommonCityListBlob: []byte(`["Beverly Hills", "Bev Hills"]`),
			AreaCodeListBlob:   []byte(`["310"]`),
		},
	}

	c, err := Build(context.Background(), &memCursor{rows: rows}, "test")
	require.NoError(t, err)

	rec, ok := c.ZipcodeIndex["00210"]
	require.True(t, ok)
	assert.Equal(t, "00210", rec.Zipcode)
	assert.Equal(t, "Beverly Hills", *rec.MajorCity)
	assert.Equal(t, "Beverly Hills", *rec.PostOfficeCity)
	assert.Equal(t, "CA", *rec.State)
	assert.Equal(t, []string{"Beverly Hills", "Bev Hills"}, rec.CommonCityList)
	assert.Equal(t, []string{"310"}, rec.AreaCodeList)
}

func TestBuild_SkipsEmptyCode(t *testing.T) {
	rows := []*source.Row{
		row("", "nowhere", "zz", nil, nil),
		row("   ", "nowhere", "zz", nil, nil),
		row("90210", "beverly hills", "ca", nil, nil),
	}

	c, err := Build(context.Background(), &memCursor{rows: rows}, "test")
	require.NoError(t, err)

	assert.Len(t, c.ZipcodeIndex, 1)
	assert.Equal(t, 1, c.Manifest.RecordCount)
}

func TestBuild_LastWriteWins(t *testing.T) {
	rows := []*source.Row{
		row("90210", "old town", "ca", nil, nil),
		row("90210", "beverly hills", "ca", nil, nil),
	}

	c, err := Build(context.Background(), &memCursor{rows: rows}, "test")
	require.NoError(t, err)

	require.Len(t, c.ZipcodeIndex, 1)
	assert.Equal(t, "Beverly Hills", *c.ZipcodeIndex["90210"].MajorCity)
}

func TestBuild_CompositeIndexNeedsCityAndState(t *testing.T) {
	rows := []*source.Row{
		row("90210", "beverly hills", "", nil, nil),
		row("90211", "", "CA", nil, nil),
		row("90212", "beverly hills", "CA", nil, nil),
	}

	c, err := Build(context.Background(), &memCursor{rows: rows}, "test")
	require.NoError(t, err)

	assert.Len(t, c.ZipcodeIndex, 3)
	require.Len(t, c.CityStateIndex, 1)
	assert.Equal(t, "Beverly Hills", c.CityStateIndex[0].City)
	assert.Equal(t, "CA", c.CityStateIndex[0].State)
	require.Len(t, c.CityStateIndex[0].Records, 1)
	assert.Equal(t, "90212", c.CityStateIndex[0].Records[0].Zipcode)
}

func TestBuild_CompositeIndexPreservesSourceOrder(t *testing.T) {
	c, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "test")
	require.NoError(t, err)

	require.Len(t, c.CityStateIndex, 5)
	assert.Equal(t, "Beverly Hills", c.CityStateIndex[0].City)
	assert.Equal(t, []string{"90210", "90211"}, codesOf(c.CityStateIndex[0].Records))
	assert.Equal(t, "Springfield", c.CityStateIndex[2].City)
	assert.Equal(t, "IL", c.CityStateIndex[2].State)
	assert.Equal(t, "Springfield", c.CityStateIndex[3].City)
	assert.Equal(t, "MA", c.CityStateIndex[3].State)
}

func TestBuild_GridBuckets(t *testing.T) {
	c, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "test")
	require.NoError(t, err)

	// Negative longitudes floor downward: floor(-1184.065) = -1185.
	found := false
	for _, g := range c.CoordinateGrid {
		if g.LatBucket == 340 && g.LngBucket == -1185 {
			found = true
			assert.Equal(t, []string{"90210"}, codesOf(g.Records))
		}
	}
	assert.True(t, found, "expected bucket (340,-1185) for 90210")
}

func TestBuild_GridExcludesRecordsWithoutCoordinates(t *testing.T) {
	rows := []*source.Row{
		row("90210", "beverly hills", "ca", ptr(34.0901), ptr(-118.4065)),
		row("99950", "ketchikan", "ak", nil, nil),
	}

	c, err := Build(context.Background(), &memCursor{rows: rows}, "test")
	require.NoError(t, err)

	var gridRecords int
	for _, g := range c.CoordinateGrid {
		gridRecords += len(g.Records)
	}
	assert.Equal(t, 1, gridRecords)
	assert.Len(t, c.ZipcodeIndex, 2)
}

func TestBuild_Manifest(t *testing.T) {
	c, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "sqlite:test.db")
	require.NoError(t, err)

	assert.NotEmpty(t, c.Manifest.BuildID)
	assert.False(t, c.Manifest.BuiltAt.IsZero())
	assert.Equal(t, 6, c.Manifest.RecordCount)
	assert.Equal(t, "sqlite:test.db", c.Manifest.Source)
}

func TestBuild_RoundTrip(t *testing.T) {
	c, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "test")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "indices.bin")
	size, err := c.Write(path)
	require.NoError(t, err)
	assert.Positive(t, size)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, c.Manifest.BuildID, loaded.Manifest.BuildID)
	assert.Len(t, loaded.ZipcodeIndex, len(c.ZipcodeIndex))
	require.Len(t, loaded.CityStateIndex, len(c.CityStateIndex))
	require.Len(t, loaded.CoordinateGrid, len(c.CoordinateGrid))
	for i, entry := range c.CityStateIndex {
		assert.Equal(t, codesOf(entry.Records), codesOf(loaded.CityStateIndex[i].Records))
	}
}

func TestBuild_Idempotent(t *testing.T) {
	c1, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "test")
	require.NoError(t, err)
	c2, err := Build(context.Background(), &memCursor{rows: fixtureRows()}, "test")
	require.NoError(t, err)

	// Manifests differ (build ID, timestamp); the indices must not.
	assert.Equal(t, c1.ZipcodeIndex, c2.ZipcodeIndex)
	assert.Equal(t, c1.CityStateIndex, c2.CityStateIndex)
	assert.Equal(t, c1.CoordinateGrid, c2.CoordinateGrid)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, &memCursor{rows: fixtureRows()}, "test")
	assert.Error(t, err)
}

func codesOf(recs []*model.ZipRecord) []string {
	codes := make([]string, len(recs))
	for i, rec := range recs {
		codes[i] = rec.Zipcode
	}
	return codes
}
