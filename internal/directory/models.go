// internal/directory/models.go

package directory

import (
	"context"
	"errors"
	"time"

	"github.com/mye-app/mye-backend/internal/geo"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// UserProfile is the read model of a user as seen by matching.
type UserProfile struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Avatar            *string    `json:"avatar,omitempty"`
	Role              string     `json:"role"`
	Bio               *string    `json:"bio,omitempty"`
	City              *string    `json:"city,omitempty"`
	Profession        *string    `json:"profession,omitempty"`
	Skills            []string   `json:"skills,omitempty"`
	Availability      *bool      `json:"availability,omitempty"`
	Position          *geo.Point `json:"-"`
	LocationUpdatedAt *time.Time `json:"-"`
}

// Directory is the user directory consumed by matching.
type Directory interface {
	GetUser(ctx context.Context, id int64) (*UserProfile, error)
	GetUsers(ctx context.Context, ids []int64) (map[int64]*UserProfile, error)
	// GetPosition returns nil without error when the user exists but has not
	// recorded a position yet.
	GetPosition(ctx context.Context, id int64) (*geo.Point, error)
	// ListCandidateIDs returns ids of users with a recorded position that may
	// lie within radius meters of center. The result can contain users outside
	// the radius; callers filter with geo.Distance.
	ListCandidateIDs(ctx context.Context, center geo.Point, radius float64, excluding int64) ([]int64, error)
	UpdatePosition(ctx context.Context, id int64, p geo.Point, at time.Time) error
}

// PositionLister is implemented by directories that can enumerate every
// recorded position, used to warm the geo index.
type PositionLister interface {
	ListPositions(ctx context.Context) (map[int64]geo.Point, error)
}
