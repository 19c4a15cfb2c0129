package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/zipsearch/internal/index"
	"github.com/sells-group/zipsearch/internal/model"
)

// DefaultRadiusMiles is the radius used by coordinate search when the caller
// does not specify one.
const DefaultRadiusMiles = 25.0

type csKey struct {
	city  string
	state string
}

type gridKey struct {
	lat int
	lng int
}

// CityStatePair is a (city, state) query tuple. Batch lookups key their
// result map by the original, un-normalized pair.
type CityStatePair struct {
	City  string
	State string
}

// Engine answers ZIP-code lookups from fully in-memory indices with no I/O.
//
// All index structures are populated once at construction and never mutated
// afterwards, so any number of goroutines may run queries concurrently
// without locking. Construction itself is not concurrency-safe and must
// complete before the first query. Returned records are shared read-only
// views; callers must not modify them.
type Engine struct {
	manifest  index.Manifest
	zipcodes  map[string]*model.ZipRecord
	// sortedCodes holds every zipcode ascending, backing the prefix scan.
	sortedCodes []string
	// cityState keeps the container's composite entries in build order so
	// city/state scans stay deterministic; the maps below are load-time
	// secondary indices that change complexity only, never content or order.
	cityState      []index.CityStateEntry
	cityStateByKey map[csKey]int
	cityEntries    map[string][]int
	stateEntries   map[string][]int
	grid           map[gridKey][]*model.ZipRecord
	closed         bool
}

// Load reads the container at path and constructs the engine. A missing or
// malformed container, or one missing any index section, is an error: the
// engine never operates on a partial index.
func Load(path string) (*Engine, error) {
	c, err := index.Load(path)
	if err != nil {
		return nil, err
	}
	e := NewFromContainer(c)

	zap.L().Info("lookup engine loaded",
		zap.String("component", "engine"),
		zap.String("container", path),
		zap.String("build_id", c.Manifest.BuildID),
		zap.Int("records", len(e.zipcodes)),
		zap.Int("city_state_keys", len(e.cityState)),
		zap.Int("grid_buckets", len(e.grid)),
	)
	return e, nil
}

// NewFromContainer constructs an engine directly from an in-memory container.
func NewFromContainer(c *index.Container) *Engine {
	e := &Engine{
		manifest:       c.Manifest,
		zipcodes:       c.ZipcodeIndex,
		cityState:      c.CityStateIndex,
		cityStateByKey: make(map[csKey]int, len(c.CityStateIndex)),
		cityEntries:    make(map[string][]int),
		stateEntries:   make(map[string][]int),
		grid:           make(map[gridKey][]*model.ZipRecord, len(c.CoordinateGrid)),
	}

	e.sortedCodes = make([]string, 0, len(c.ZipcodeIndex))
	for code := range c.ZipcodeIndex {
		e.sortedCodes = append(e.sortedCodes, code)
	}
	sort.Strings(e.sortedCodes)

	for i, entry := range c.CityStateIndex {
		e.cityStateByKey[csKey{city: entry.City, state: entry.State}] = i
		e.cityEntries[entry.City] = append(e.cityEntries[entry.City], i)
		e.stateEntries[entry.State] = append(e.stateEntries[entry.State], i)
	}

	for _, g := range c.CoordinateGrid {
		e.grid[gridKey{lat: g.LatBucket, lng: g.LngBucket}] = g.Records
	}

	return e
}

// Manifest returns the loaded container's build manifest.
func (e *Engine) Manifest() index.Manifest {
	return e.manifest
}

// ByZipcode looks up one record by exact zipcode. Accepts a string or an
// integer (both "90210" and 90210 resolve identically); the input is
// zero-padded to 5 characters before the O(1) lookup. Returns nil for any
// code not present — absence is a normal outcome, never an error.
func (e *Engine) ByZipcode(zipcode any) *model.ZipRecord {
	if e.closed {
		return nil
	}

	var code string
	switch v := zipcode.(type) {
	case string:
		code = model.PadZipcode(v)
	case int:
		code = fmt.Sprintf("%05d", v)
	case int64:
		code = fmt.Sprintf("%05d", v)
	default:
		return nil
	}
	return e.zipcodes[code]
}

// ByCityAndState returns every record for the normalized (city, state) pair
// in source insertion order, or an empty list when the pair is unknown.
// City text is case-insensitive; state accepts abbreviations or full names.
func (e *Engine) ByCityAndState(city, state string) []*model.ZipRecord {
	if e.closed {
		return []*model.ZipRecord{}
	}
	return e.lookupCityState(model.TitleCaseCity(city), NormalizeState(state))
}

func (e *Engine) lookupCityState(city, state string) []*model.ZipRecord {
	pos, ok := e.cityStateByKey[csKey{city: city, state: state}]
	if !ok {
		return []*model.ZipRecord{}
	}
	return e.cityState[pos].Records
}

// ByCity returns every record whose city matches, across all states, as one
// flat list in composite-index order. This path has no direct index: cost is
// proportional to the number of distinct city/state pairs, not O(1).
func (e *Engine) ByCity(city string) []*model.ZipRecord {
	if e.closed {
		return []*model.ZipRecord{}
	}
	return e.concatEntries(e.cityEntries[model.TitleCaseCity(city)])
}

// ByState returns every record in the given state as one flat list in
// composite-index order. Same complexity caveat as ByCity, and populous
// states return thousands of records.
func (e *Engine) ByState(state string) []*model.ZipRecord {
	if e.closed {
		return []*model.ZipRecord{}
	}
	return e.concatEntries(e.stateEntries[NormalizeState(state)])
}

func (e *Engine) concatEntries(positions []int) []*model.ZipRecord {
	records := []*model.ZipRecord{}
	for _, pos := range positions {
		records = append(records, e.cityState[pos].Records...)
	}
	return records
}

// ByPrefix returns every record whose zipcode starts with prefix, sorted
// ascending by code. The ordering is part of the contract. The prefix is
// used verbatim: it is neither validated nor zero-padded.
func (e *Engine) ByPrefix(prefix string) []*model.ZipRecord {
	if e.closed {
		return []*model.ZipRecord{}
	}

	records := []*model.ZipRecord{}
	// sortedCodes is ascending, so matches form one contiguous run.
	start := sort.SearchStrings(e.sortedCodes, prefix)
	for i := start; i < len(e.sortedCodes); i++ {
		if !strings.HasPrefix(e.sortedCodes[i], prefix) {
			break
		}
		records = append(records, e.zipcodes[e.sortedCodes[i]])
	}
	return records
}

// ByCoordinates returns every record within radiusMiles of the query point,
// sorted ascending by great-circle distance with ties broken by code. The
// scan examines enough grid buckets around the home bucket that no record
// inside the radius can be missed, then filters candidates by exact
// Haversine distance.
func (e *Engine) ByCoordinates(lat, lng, radiusMiles float64) []*model.ZipRecord {
	if e.closed || radiusMiles < 0 {
		return []*model.ZipRecord{}
	}

	const milesPerDegLat = EarthRadiusMiles * math.Pi / 180

	// Bucket heights: latitude rows are a fixed ~6.9 miles; longitude
	// columns shrink by cos(lat), clamped so the window stays finite at
	// extreme latitudes.
	latBucketMiles := index.DegPerBucket * milesPerDegLat
	cosLat := math.Abs(math.Cos(lat * math.Pi / 180))
	if cosLat < 0.05 {
		cosLat = 0.05
	}
	lngBucketMiles := latBucketMiles * cosLat

	// +1 bucket of safety margin on each axis per the window contract.
	latSpan := int(math.Ceil(radiusMiles/latBucketMiles)) + 1
	lngSpan := int(math.Ceil(radiusMiles/lngBucketMiles)) + 1

	homeLat, homeLng := index.Bucket(lat, lng)

	type candidate struct {
		rec  *model.ZipRecord
		dist float64
	}
	var candidates []candidate

	for latB := homeLat - latSpan; latB <= homeLat+latSpan; latB++ {
		for lngB := homeLng - lngSpan; lngB <= homeLng+lngSpan; lngB++ {
			for _, rec := range e.grid[gridKey{lat: latB, lng: lngB}] {
				d := HaversineMiles(lat, lng, *rec.Lat, *rec.Lng)
				if d <= radiusMiles {
					candidates = append(candidates, candidate{rec: rec, dist: d})
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].rec.Zipcode < candidates[j].rec.Zipcode
	})

	records := make([]*model.ZipRecord, len(candidates))
	for i, c := range candidates {
		records[i] = c.rec
	}
	return records
}

// ByBounds returns every record whose point lies inside the given
// lat/lng box, sorted ascending by code.
func (e *Engine) ByBounds(minLat, minLng, maxLat, maxLng float64) []*model.ZipRecord {
	if e.closed {
		return []*model.ZipRecord{}
	}

	box := geom.NewBounds(geom.XY)
	box.Set(minLng, minLat, maxLng, maxLat)

	minLatB, minLngB := index.Bucket(minLat, minLng)
	maxLatB, maxLngB := index.Bucket(maxLat, maxLng)

	records := []*model.ZipRecord{}
	for latB := minLatB; latB <= maxLatB; latB++ {
		for lngB := minLngB; lngB <= maxLngB; lngB++ {
			for _, rec := range e.grid[gridKey{lat: latB, lng: lngB}] {
				if box.OverlapsPoint(geom.XY, geom.Coord{*rec.Lng, *rec.Lat}) {
					records = append(records, rec)
				}
			}
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Zipcode < records[j].Zipcode })
	return records
}

// BatchCityStateLookup resolves many (city, state) pairs in one call,
// memoizing normalization per distinct pair. Results are identical to
// calling ByCityAndState for each pair, including empty lists for misses;
// map keys are the original input tuples. The memo cache is local to the
// call, keeping the engine itself immutable and freely shareable.
func (e *Engine) BatchCityStateLookup(pairs []CityStatePair) map[CityStatePair][]*model.ZipRecord {
	results := make(map[CityStatePair][]*model.ZipRecord, len(pairs))
	if e.closed {
		for _, p := range pairs {
			results[p] = []*model.ZipRecord{}
		}
		return results
	}

	memo := make(map[csKey][]*model.ZipRecord)
	for _, p := range pairs {
		if _, done := results[p]; done {
			continue
		}
		key := csKey{city: model.TitleCaseCity(p.City), state: NormalizeState(p.State)}
		recs, ok := memo[key]
		if !ok {
			recs = e.lookupCityState(key.city, key.state)
			memo[key] = recs
		}
		results[p] = recs
	}
	return results
}

// Close marks the engine unusable for further calls. There are no open
// resources to release; results already returned to callers remain valid
// independent values. Close is not safe to call concurrently with queries.
func (e *Engine) Close() {
	e.closed = true
}
