package index

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/zipsearch/internal/model"
)

// DegPerBucket is the fixed width of one coordinate-grid bucket in decimal
// degrees (~6.9 miles of latitude). The value is part of the container
// contract: changing it invalidates every pre-built container.
const DegPerBucket = 0.1

// Bucket maps a coordinate to its grid bucket pair via floor(x*10).
func Bucket(lat, lng float64) (int, int) {
	return int(math.Floor(lat * 10)), int(math.Floor(lng * 10))
}

// Manifest describes one build of the container.
type Manifest struct {
	BuildID     string    `json:"build_id"`
	BuiltAt     time.Time `json:"built_at"`
	RecordCount int       `json:"record_count"`
	Source      string    `json:"source"`
}

// CityStateEntry is one composite-key bucket: all records sharing a
// normalized (city, state) pair, in source row order.
type CityStateEntry struct {
	City    string             `json:"city"`
	State   string             `json:"state"`
	Records []*model.ZipRecord `json:"records"`
}

// GridEntry is one occupied coordinate-grid bucket.
type GridEntry struct {
	LatBucket int                `json:"lat_bucket"`
	LngBucket int                `json:"lng_bucket"`
	Records   []*model.ZipRecord `json:"records"`
}

// Container is the single serialized artifact holding the three precomputed
// indices. CityStateIndex and CoordinateGrid are ordered arrays (build
// insertion order) rather than maps so that rebuilds from identical input
// are byte-identical and composite-index scans have a stable order.
type Container struct {
	Manifest       Manifest                    `json:"manifest"`
	ZipcodeIndex   map[string]*model.ZipRecord `json:"zipcode_index"`
	CityStateIndex []CityStateEntry            `json:"city_state_index"`
	CoordinateGrid []GridEntry                 `json:"coordinate_grid"`
}

// Write serializes the container to path atomically: the JSON is written to
// a temp file in the target directory and renamed into place, so a failed
// build never leaves a partial container behind. Returns the container size
// in bytes.
func (c *Container) Write(path string) (int64, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return 0, eris.Wrap(err, "container: marshal")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".indices-*.tmp")
	if err != nil {
		return 0, eris.Wrap(err, "container: create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, eris.Wrap(err, "container: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, eris.Wrap(err, "container: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, eris.Wrapf(err, "container: rename into %s", path)
	}

	return int64(len(data)), nil
}

// Load reads and validates a container. A missing or unreadable file, or a
// container missing any of the three named index sections, is an error: the
// engine must never start on a partial index.
func Load(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "container: read %s", path)
	}

	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "container: parse %s", path)
	}

	// An absent JSON key leaves the field nil; an empty-but-present section
	// decodes non-nil. All three sections must be present.
	if c.ZipcodeIndex == nil {
		return nil, eris.Errorf("container: %s missing zipcode_index section", path)
	}
	if c.CityStateIndex == nil {
		return nil, eris.Errorf("container: %s missing city_state_index section", path)
	}
	if c.CoordinateGrid == nil {
		return nil, eris.Errorf("container: %s missing coordinate_grid section", path)
	}

	return &c, nil
}
