// Package storage provides the persistent collaborators behind the routing
// core: user profiles in Postgres, bans in Redis and the localized FAQ files.
package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-relay/internal/domain"
)

// ErrProfileNotFound reports a lookup for a user who never registered.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists user registration profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID int64) (*domain.Profile, error)
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	SetLanguage(ctx context.Context, userID int64, lang domain.Language) error
}

type profileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore returns a Postgres-backed implementation.
func NewProfileStore(pool *pgxpool.Pool) ProfileStore {
	return &profileStore{pool: pool}
}

func (s *profileStore) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	const query = `
        SELECT user_id, full_name, course, faculty, department, study_group, language
        FROM profiles WHERE user_id=$1`

	var profile domain.Profile
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Course,
		&profile.Faculty,
		&profile.Department,
		&profile.Group,
		&profile.Language,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *profileStore) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id=$1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *profileStore) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, full_name, course, faculty, department, study_group, language)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id) DO UPDATE SET
            full_name=EXCLUDED.full_name,
            course=EXCLUDED.course,
            faculty=EXCLUDED.faculty,
            department=EXCLUDED.department,
            study_group=EXCLUDED.study_group,
            language=EXCLUDED.language,
            updated_at=NOW()`

	_, err := s.pool.Exec(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.Course,
		profile.Faculty,
		profile.Department,
		profile.Group,
		profile.Language,
	)
	return err
}

func (s *profileStore) SetLanguage(ctx context.Context, userID int64, lang domain.Language) error {
	const query = `UPDATE profiles SET language=$1, updated_at=NOW() WHERE user_id=$2`

	cmd, err := s.pool.Exec(ctx, query, lang, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
