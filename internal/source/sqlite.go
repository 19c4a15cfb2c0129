package source

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCursor streams simple_zipcode rows from a SQLite database using
// modernc.org/sqlite. The database is opened read-only: building never
// mutates the source.
type SQLiteCursor struct {
	db   *sql.DB
	rows *sql.Rows
}

// OpenSQLite opens the SQLite source at the given path and starts the
// single build-time scan. A missing or unreadable database is fatal to the
// build, so errors here are returned rather than logged.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteCursor, error) {
	db, err := sql.Open("sqlite", dsn+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "sqlite: ping %s", dsn)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+selectColumns+` FROM simple_zipcode`)
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: query simple_zipcode")
	}

	return &SQLiteCursor{db: db, rows: rows}, nil
}

func (c *SQLiteCursor) Next(ctx context.Context) (*Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: context cancelled")
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, eris.Wrap(err, "sqlite: iterate rows")
		}
		return nil, nil
	}

	var (
		zipcode  sql.NullString
		strCols  [6]sql.NullString // zipcode_type, major_city, post_office_city, county, state, timezone
		blobCity []byte
		blobArea []byte
		f64Cols  [10]sql.NullFloat64 // lat, lng, radius, density, land, water, bounds w/e/n/s
		i64Cols  [5]sql.NullInt64   // population, housing, occupied, home value, income
	)

	err := c.rows.Scan(
		&zipcode, &strCols[0], &strCols[1], &strCols[2], &blobCity,
		&strCols[3], &strCols[4], &f64Cols[0], &f64Cols[1], &strCols[5],
		&f64Cols[2], &blobArea,
		&i64Cols[0], &f64Cols[3], &f64Cols[4], &f64Cols[5],
		&i64Cols[1], &i64Cols[2], &i64Cols[3], &i64Cols[4],
		&f64Cols[6], &f64Cols[7], &f64Cols[8], &f64Cols[9],
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan row")
	}

	return &Row{
		Zipcode:               zipcode.String,
		ZipcodeType:           nullStr(strCols[0]),
		MajorCity:             nullStr(strCols[1]),
		PostOfficeCity:        nullStr(strCols[2]),
		CommonCityListBlob:    blobCity,
		County:                nullStr(strCols[3]),
		State:                 nullStr(strCols[4]),
		Lat:                   nullF64(f64Cols[0]),
		Lng:                   nullF64(f64Cols[1]),
		Timezone:              nullStr(strCols[5]),
		RadiusInMiles:         nullF64(f64Cols[2]),
		AreaCodeListBlob:      blobArea,
		Population:            nullI64(i64Cols[0]),
		PopulationDensity:     nullF64(f64Cols[3]),
		LandAreaInSqMi:        nullF64(f64Cols[4]),
		WaterAreaInSqMi:       nullF64(f64Cols[5]),
		HousingUnits:          nullI64(i64Cols[1]),
		OccupiedHousingUnits:  nullI64(i64Cols[2]),
		MedianHomeValue:       nullI64(i64Cols[3]),
		MedianHouseholdIncome: nullI64(i64Cols[4]),
		BoundsWest:            nullF64(f64Cols[6]),
		BoundsEast:            nullF64(f64Cols[7]),
		BoundsNorth:           nullF64(f64Cols[8]),
		BoundsSouth:           nullF64(f64Cols[9]),
	}, nil
}

func (c *SQLiteCursor) Close() error {
	if c.rows != nil {
		_ = c.rows.Close()
	}
	return c.db.Close()
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullI64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
