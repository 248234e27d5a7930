// internal/matching/proximity.go

package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mye-app/mye-backend/internal/directory"
	"github.com/mye-app/mye-backend/internal/geo"
)

const (
	// NearbyRadiusMeters is the discovery radius. A candidate is inside when
	// its distance rounded to the meter does not exceed it.
	NearbyRadiusMeters = 500

	// candidateMargin widens the directory query so prefilters based on
	// bounding boxes or geohashes never drop a user on the boundary.
	candidateMargin = 5.0
)

// ProximityIndex answers nearby queries on top of the user directory and the
// match store.
type ProximityIndex struct {
	dir   directory.Directory
	store MatchStore
}

func NewProximityIndex(dir directory.Directory, store MatchStore) *ProximityIndex {
	return &ProximityIndex{dir: dir, store: store}
}

type nearbyCandidate struct {
	profile  *directory.UserProfile
	distance float64
}

// Nearby returns users within NearbyRadiusMeters of userID, closest first.
func (p *ProximityIndex) Nearby(ctx context.Context, userID int64) ([]NearbyUser, error) {
	loader := directory.NewProfileLoader(p.dir)

	me, err := loader.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if me.Position == nil {
		return nil, ErrLocationRequired
	}

	ids, err := p.dir.ListCandidateIDs(ctx, *me.Position, NearbyRadiusMeters+candidateMargin, userID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	profiles, err := loader.LoadMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	candidates := make([]nearbyCandidate, 0, len(profiles))
	for _, id := range ids {
		profile, ok := profiles[id]
		if !ok || id == userID {
			continue
		}
		d, known := geo.Distance(me.Position, profile.Position)
		if !known || math.Round(d) > NearbyRadiusMeters {
			continue
		}
		candidates = append(candidates, nearbyCandidate{profile: profile, distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].profile.ID < candidates[j].profile.ID
	})

	others := make([]int64, len(candidates))
	for i, c := range candidates {
		others[i] = c.profile.ID
	}
	records, err := p.store.ListForUser(ctx, userID, others)
	if err != nil {
		return nil, fmt.Errorf("load match records: %w", err)
	}

	out := make([]NearbyUser, 0, len(candidates))
	for _, c := range candidates {
		entry := NearbyUser{
			UserCard:           newUserCard(c.profile),
			Distance:           int(math.Round(c.distance)),
			CompatibilityScore: CompatibilityScore(me, c.profile),
			MyAction:           ActionNone,
			TheirAction:        ActionNone,
		}
		if rec, ok := records[c.profile.ID]; ok {
			entry.MyAction = rec.ActionOf(userID)
			entry.TheirAction = rec.ActionOf(c.profile.ID)
			entry.IsMutual = rec.IsMutual
		}
		out = append(out, entry)
	}

	nearbyResults.Observe(float64(len(out)))
	return out, nil
}
