// internal/matching/store_postgres.go

package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a MatchStore on the matches table.
func NewPostgresStore(db *sqlx.DB) MatchStore {
	return &postgresStore{db: db}
}

const matchColumns = `id, user1_id, user2_id, user1_action, user2_action, is_mutual,
	distance, compatibility_score, matched_at, version, created_at, updated_at`

// Update locks the pair row with SELECT ... FOR UPDATE, so concurrent API
// instances queue on the row. A racing first insert hits the pair unique
// index and comes back as ErrPersistenceConflict.
func (s *postgresStore) Update(ctx context.Context, key PairKey, fn UpdateFunc) (*MatchRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin match tx: %w", err)
	}
	defer tx.Rollback()

	var cur *MatchRecord
	var row MatchRecord
	err = tx.GetContext(ctx, &row, `
		SELECT `+matchColumns+` FROM matches
		WHERE LEAST(user1_id, user2_id) = $1 AND GREATEST(user1_id, user2_id) = $2
		FOR UPDATE`, key.Low, key.High)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("select match %s: %w", key, err)
	default:
		cur = &row
	}

	var before *MatchRecord
	if cur != nil {
		before = cur.clone()
	}
	next, err := fn(before)
	if err != nil {
		return nil, err
	}

	if cur == nil {
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO matches (user1_id, user2_id, user1_action, user2_action, is_mutual,
				distance, compatibility_score, matched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, version, created_at, updated_at`,
			next.User1ID, next.User2ID, next.User1Action, next.User2Action, next.IsMutual,
			next.Distance, next.CompatibilityScore, next.MatchedAt,
		).Scan(&next.ID, &next.Version, &next.CreatedAt, &next.UpdatedAt)
		if err != nil {
			return nil, translatePQError(err)
		}
	} else {
		err = tx.QueryRowxContext(ctx, `
			UPDATE matches
			SET user1_action = $3, user2_action = $4, is_mutual = $5,
				distance = $6, compatibility_score = $7, matched_at = $8,
				version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $2
			RETURNING version, updated_at`,
			cur.ID, cur.Version, next.User1Action, next.User2Action, next.IsMutual,
			next.Distance, next.CompatibilityScore, next.MatchedAt,
		).Scan(&next.Version, &next.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersistenceConflict
		}
		if err != nil {
			return nil, translatePQError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translatePQError(err)
	}
	return next, nil
}

func (s *postgresStore) Get(ctx context.Context, key PairKey) (*MatchRecord, error) {
	var r MatchRecord
	err := s.db.GetContext(ctx, &r, `
		SELECT `+matchColumns+` FROM matches
		WHERE LEAST(user1_id, user2_id) = $1 AND GREATEST(user1_id, user2_id) = $2`,
		key.Low, key.High)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", key, err)
	}
	return &r, nil
}

func (s *postgresStore) ListForUser(ctx context.Context, userID int64, others []int64) (map[int64]*MatchRecord, error) {
	out := make(map[int64]*MatchRecord)
	if len(others) == 0 {
		return out, nil
	}

	var rows []*MatchRecord
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+matchColumns+` FROM matches
		WHERE (user1_id = $1 AND user2_id = ANY($2))
		   OR (user2_id = $1 AND user1_id = ANY($2))`,
		userID, pq.Array(others))
	if err != nil {
		return nil, fmt.Errorf("list matches for user %d: %w", userID, err)
	}

	for _, r := range rows {
		out[r.OtherUser(userID)] = r
	}
	return out, nil
}

func (s *postgresStore) ListMutual(ctx context.Context, userID int64) ([]*MatchRecord, error) {
	rows := []*MatchRecord{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+matchColumns+` FROM matches
		WHERE is_mutual AND (user1_id = $1 OR user2_id = $1)
		ORDER BY matched_at DESC NULLS LAST, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mutual matches for user %d: %w", userID, err)
	}
	return rows, nil
}

func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrPersistenceConflict
		case pqForeignKeyViolation:
			return ErrTargetNotFound
		}
	}
	return err
}
