package matching

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mye-app/mye-backend/internal/directory"
	"github.com/mye-app/mye-backend/internal/geo"
)

const (
	professionBonus   = 30
	cityBonus         = 20
	sharedSkillBonus  = 5
	maxSkillsBonus    = 25
	availabilityBonus = 15
	proximityBonus    = 10
	maxScore          = 100

	// Users closer than this get the proximity bonus.
	proximityBonusMeters = 100.0
)

// CompatibilityScore sums independent affinity bonuses between two profiles
// and caps the total at 100. Missing attributes skip their bonus.
func CompatibilityScore(a, b *directory.UserProfile) int {
	score := 0

	if equalNonNil(a.Profession, b.Profession) {
		score += professionBonus
	}
	if equalNonNil(a.City, b.City) {
		score += cityBonus
	}

	if shared := sharedSkills(a.Skills, b.Skills); shared > 0 {
		score += min(shared*sharedSkillBonus, maxSkillsBonus)
	}

	// Only presence matters, not the value.
	if a.Availability != nil && b.Availability != nil {
		score += availabilityBonus
	}

	if d, ok := geo.Distance(a.Position, b.Position); ok && d < proximityBonusMeters {
		score += proximityBonus
	}

	return min(score, maxScore)
}

// equalNonNil treats an empty string the same as a missing value.
func equalNonNil(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

func sharedSkills(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return mapset.NewThreadUnsafeSet(a...).Intersect(mapset.NewThreadUnsafeSet(b...)).Cardinality()
}
