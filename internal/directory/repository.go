// internal/directory/repository.go

package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mye-app/mye-backend/internal/geo"
)

// Repository is the Postgres backed directory.
type Repository interface {
	Directory
	PositionLister
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a Directory backed by the users table.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

type userRow struct {
	ID                int64           `db:"id"`
	Name              string          `db:"name"`
	Avatar            sql.NullString  `db:"avatar"`
	Role              string          `db:"role"`
	Bio               sql.NullString  `db:"bio"`
	City              sql.NullString  `db:"city"`
	Profession        sql.NullString  `db:"profession"`
	Skills            pq.StringArray  `db:"skills"`
	Availability      sql.NullBool    `db:"availability"`
	Latitude          sql.NullFloat64 `db:"latitude"`
	Longitude         sql.NullFloat64 `db:"longitude"`
	LocationUpdatedAt sql.NullTime    `db:"location_updated_at"`
}

const userColumns = `id, name, avatar, role, bio, city, profession, skills,
	availability, latitude, longitude, location_updated_at`

func (r userRow) toProfile() *UserProfile {
	p := &UserProfile{
		ID:     r.ID,
		Name:   r.Name,
		Role:   r.Role,
		Skills: []string(r.Skills),
	}
	if r.Avatar.Valid {
		p.Avatar = &r.Avatar.String
	}
	if r.Bio.Valid {
		p.Bio = &r.Bio.String
	}
	if r.City.Valid {
		p.City = &r.City.String
	}
	if r.Profession.Valid {
		p.Profession = &r.Profession.String
	}
	if r.Availability.Valid {
		p.Availability = &r.Availability.Bool
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		p.Position = &geo.Point{Latitude: r.Latitude.Float64, Longitude: r.Longitude.Float64}
	}
	if r.LocationUpdatedAt.Valid {
		p.LocationUpdatedAt = &r.LocationUpdatedAt.Time
	}
	return p
}

// GetUser retrieves a user profile by ID
func (r *postgresRepository) GetUser(ctx context.Context, id int64) (*UserProfile, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return row.toProfile(), nil
}

// GetUsers retrieves profiles in bulk. Unknown ids are absent from the map.
func (r *postgresRepository) GetUsers(ctx context.Context, ids []int64) (map[int64]*UserProfile, error) {
	out := make(map[int64]*UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	for _, row := range rows {
		out[row.ID] = row.toProfile()
	}
	return out, nil
}

// GetPosition returns the recorded position of a user
func (r *postgresRepository) GetPosition(ctx context.Context, id int64) (*geo.Point, error) {
	var lat, lon sql.NullFloat64
	query := `SELECT latitude, longitude FROM users WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", id, err)
	}
	if !lat.Valid || !lon.Valid {
		return nil, nil
	}
	return &geo.Point{Latitude: lat.Float64, Longitude: lon.Float64}, nil
}

// ListCandidateIDs uses a bounding box over latitude/longitude as prefilter
func (r *postgresRepository) ListCandidateIDs(ctx context.Context, center geo.Point, radius float64, excluding int64) ([]int64, error) {
	box := geo.BoundingBox(center, radius)
	query := `
		SELECT id FROM users
		WHERE id <> $1
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		ORDER BY id`

	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, excluding, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return ids, nil
}

// UpdatePosition stores the latest position of a user
func (r *postgresRepository) UpdatePosition(ctx context.Context, id int64, p geo.Point, at time.Time) error {
	query := `
		UPDATE users
		SET latitude = $2, longitude = $3, location_updated_at = $4, updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, p.Latitude, p.Longitude, at)
	if err != nil {
		return fmt.Errorf("update position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListPositions returns every recorded position
func (r *postgresRepository) ListPositions(ctx context.Context) (map[int64]geo.Point, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, latitude, longitude FROM users
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]geo.Point)
	for rows.Next() {
		var id int64
		var p geo.Point
		if err := rows.Scan(&id, &p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, rows.Err()
}
