package source

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pgxQuerier is the slice of pgxpool.Pool the cursor needs; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresCursor streams simple_zipcode rows from Postgres via pgx.
type PostgresCursor struct {
	pool pgxQuerier
	rows pgx.Rows
}

// OpenPostgres connects to the Postgres source and starts the build-time scan.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresCursor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	cur, err := NewPostgresCursor(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return cur, nil
}

// NewPostgresCursor starts the scan on an existing pool or mock.
func NewPostgresCursor(ctx context.Context, pool pgxQuerier) (*PostgresCursor, error) {
	rows, err := pool.Query(ctx, `SELECT `+selectColumns+` FROM simple_zipcode`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query simple_zipcode")
	}
	return &PostgresCursor{pool: pool, rows: rows}, nil
}

func (c *PostgresCursor) Next(ctx context.Context) (*Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: context cancelled")
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, eris.Wrap(err, "postgres: iterate rows")
		}
		return nil, nil
	}

	var (
		zipcode *string
		r       Row
	)
	err := c.rows.Scan(
		&zipcode, &r.ZipcodeType, &r.MajorCity, &r.PostOfficeCity, &r.CommonCityListBlob,
		&r.County, &r.State, &r.Lat, &r.Lng, &r.Timezone,
		&r.RadiusInMiles, &r.AreaCodeListBlob,
		&r.Population, &r.PopulationDensity, &r.LandAreaInSqMi, &r.WaterAreaInSqMi,
		&r.HousingUnits, &r.OccupiedHousingUnits, &r.MedianHomeValue, &r.MedianHouseholdIncome,
		&r.BoundsWest, &r.BoundsEast, &r.BoundsNorth, &r.BoundsSouth,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan row")
	}
	if zipcode != nil {
		r.Zipcode = *zipcode
	}
	return &r, nil
}

func (c *PostgresCursor) Close() error {
	if c.rows != nil {
		c.rows.Close()
	}
	c.pool.Close()
	return nil
}
