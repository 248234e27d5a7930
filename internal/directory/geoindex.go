// internal/directory/geoindex.go
// Redis GEO set mirroring user positions for candidate discovery

package directory

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/mye-app/mye-backend/internal/geo"
)

const (
	geoIndexKey = "mye:positions"

	// Redis GEO cannot store latitudes beyond this bound.
	redisMaxLatitude = 85.05112878

	// Redis uses a slightly different Earth radius and 52-bit geohashes, so
	// the index is queried a little wider than requested.
	geoIndexMargin = 10.0
)

// GeoIndex wraps a Redis GEO set keyed by user id.
type GeoIndex struct {
	client *redis.Client
	key    string
}

// NewGeoIndex creates a GEO index on the given client
func NewGeoIndex(client *redis.Client) *GeoIndex {
	return &GeoIndex{client: client, key: geoIndexKey}
}

// Add sets the position of a user.
func (g *GeoIndex) Add(ctx context.Context, id int64, p geo.Point) error {
	if !indexable(p) {
		return g.Remove(ctx, id)
	}
	return g.client.GeoAdd(ctx, g.key, &redis.GeoLocation{
		Name:      strconv.FormatInt(id, 10),
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
	}).Err()
}

// Remove drops a user from the index.
func (g *GeoIndex) Remove(ctx context.Context, id int64) error {
	return g.client.ZRem(ctx, g.key, strconv.FormatInt(id, 10)).Err()
}

// Radius returns ids within radius meters of center, unordered.
func (g *GeoIndex) Radius(ctx context.Context, center geo.Point, radius float64) ([]int64, error) {
	locs, err := g.client.GeoRadius(ctx, g.key, center.Longitude, center.Latitude, &redis.GeoRadiusQuery{
		Radius: radius,
		Unit:   "m",
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(locs))
	for _, loc := range locs {
		id, err := strconv.ParseInt(loc.Name, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad geo member %q: %w", loc.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func indexable(p geo.Point) bool {
	return math.Abs(p.Latitude) <= redisMaxLatitude
}

type indexedDirectory struct {
	Directory
	index *GeoIndex
	log   *logrus.Entry
}

// NewIndexedDirectory keeps index in sync with position updates on base and
// answers candidate queries from it. base stays the source of truth: index
// failures are logged and the query falls back to base.
func NewIndexedDirectory(base Directory, index *GeoIndex, log *logrus.Entry) Directory {
	return &indexedDirectory{Directory: base, index: index, log: log}
}

func (d *indexedDirectory) UpdatePosition(ctx context.Context, id int64, p geo.Point, at time.Time) error {
	if err := d.Directory.UpdatePosition(ctx, id, p, at); err != nil {
		return err
	}
	if err := d.index.Add(ctx, id, p); err != nil {
		d.log.WithError(err).WithField("user_id", id).Warn("geo index update failed")
	}
	return nil
}

func (d *indexedDirectory) ListCandidateIDs(ctx context.Context, center geo.Point, radius float64, excluding int64) ([]int64, error) {
	// Near the poles part of the circle may fall outside what Redis can store.
	if math.Abs(center.Latitude)+radius/geo.EarthRadiusMeters*180/math.Pi > redisMaxLatitude {
		return d.Directory.ListCandidateIDs(ctx, center, radius, excluding)
	}

	ids, err := d.index.Radius(ctx, center, radius+geoIndexMargin)
	if err != nil {
		d.log.WithError(err).Warn("geo index query failed, falling back to directory")
		return d.Directory.ListCandidateIDs(ctx, center, radius, excluding)
	}

	out := ids[:0]
	for _, id := range ids {
		if id != excluding {
			out = append(out, id)
		}
	}
	return out, nil
}

// Warm loads every recorded position of base into the index.
func Warm(ctx context.Context, base PositionLister, index *GeoIndex) (int, error) {
	positions, err := base.ListPositions(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	_, err = index.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, p := range positions {
			if !indexable(p) {
				continue
			}
			pipe.GeoAdd(ctx, index.key, &redis.GeoLocation{
				Name:      strconv.FormatInt(id, 10),
				Longitude: p.Longitude,
				Latitude:  p.Latitude,
			})
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("warm geo index: %w", err)
	}
	return n, nil
}
