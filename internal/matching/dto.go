// internal/matching/dto.go

package matching

import (
	"math"
	"time"

	"github.com/mye-app/mye-backend/internal/directory"
)

// LocationRequest is the body of POST /location
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type LocationResponse struct {
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	LocationUpdatedAt time.Time `json:"location_updated_at"`
}

// UserCard is the public part of a profile shown to other users.
type UserCard struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Avatar     *string `json:"avatar"`
	Role       string  `json:"role"`
	Profession *string `json:"profession"`
	Bio        *string `json:"bio"`
	City       *string `json:"city,omitempty"`
}

func newUserCard(p *directory.UserProfile) UserCard {
	return UserCard{
		ID:         p.ID,
		Name:       p.Name,
		Avatar:     p.Avatar,
		Role:       p.Role,
		Profession: p.Profession,
		Bio:        p.Bio,
		City:       p.City,
	}
}

// NearbyUser is one entry of the nearby list.
type NearbyUser struct {
	UserCard
	Distance           int    `json:"distance"`
	CompatibilityScore int    `json:"compatibility_score"`
	MyAction           Action `json:"my_action"`
	TheirAction        Action `json:"their_action"`
	IsMutual           bool   `json:"is_mutual"`
}

type NearbyResponse struct {
	Users []NearbyUser `json:"users"`
	Count int          `json:"count"`
}

// LikeResponse reports the state of the pair after a like.
type LikeResponse struct {
	MatchID            int64      `json:"match_id"`
	IsMutual           bool       `json:"is_mutual"`
	MatchedAt          *time.Time `json:"matched_at"`
	CompatibilityScore int        `json:"compatibility_score"`
	Distance           *int       `json:"distance"`
}

// MatchCard is one entry of the mutual match list.
type MatchCard struct {
	MatchID            int64     `json:"match_id"`
	User               UserCard  `json:"user"`
	Distance           *int      `json:"distance"`
	CompatibilityScore *int      `json:"compatibility_score"`
	MatchedAt          time.Time `json:"matched_at"`
}

type MatchesResponse struct {
	Matches []MatchCard `json:"matches"`
	Count   int         `json:"count"`
}

func roundedMeters(d *float64) *int {
	if d == nil {
		return nil
	}
	m := int(math.Round(*d))
	return &m
}
