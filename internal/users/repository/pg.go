package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/corvusHold/rentmail/internal/users/domain"
)

// Ensure PGRepository implements domain.Repository
var _ domain.Repository = (*PGRepository)(nil)

type PGRepository struct {
	pg *pgxpool.Pool
}

func New(pg *pgxpool.Pool) *PGRepository {
	return &PGRepository{pg: pg}
}

const userColumns = `uid, email, first_name, last_name, type, photo_url, is_disabled, profile, last_login, created_at`

func scanUser(row pgx.Row) (domain.AppUser, error) {
	var (
		u         domain.AppUser
		typ       string
		profile   []byte
		lastLogin pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.UID, &u.Email, &u.FirstName, &u.LastName, &typ, &u.PhotoURL, &u.IsDisabled, &profile, &lastLogin, &createdAt); err != nil {
		return domain.AppUser{}, err
	}
	u.Type = domain.UserType(typ)
	if len(profile) > 0 {
		var p domain.CustomerProfile
		if err := json.Unmarshal(profile, &p); err != nil {
			return domain.AppUser{}, fmt.Errorf("decode profile for %s: %w", u.UID, err)
		}
		u.Profile = &p
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time.UTC()
	}
	return u, nil
}

func (r *PGRepository) GetByID(ctx context.Context, uid string) (domain.AppUser, error) {
	row := r.pg.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AppUser{}, domain.ErrNotFound
	}
	return u, err
}

func (r *PGRepository) ListByType(ctx context.Context, t domain.UserType) ([]domain.AppUser, error) {
	rows, err := r.pg.Query(ctx, `SELECT `+userColumns+` FROM users WHERE type = $1 ORDER BY created_at`, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.AppUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PGRepository) Upsert(ctx context.Context, u domain.AppUser) error {
	var profile []byte
	if u.Profile != nil {
		b, err := json.Marshal(u.Profile)
		if err != nil {
			return err
		}
		profile = b
	}
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	lastLogin := pgtype.Timestamptz{}
	if u.LastLogin != nil {
		lastLogin = pgtype.Timestamptz{Time: *u.LastLogin, Valid: true}
	}
	_, err := r.pg.Exec(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (uid) DO UPDATE SET
    email = EXCLUDED.email,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    type = EXCLUDED.type,
    photo_url = EXCLUDED.photo_url,
    is_disabled = EXCLUDED.is_disabled,
    profile = EXCLUDED.profile,
    last_login = EXCLUDED.last_login`,
		u.UID, u.Email, u.FirstName, u.LastName, string(u.Type), u.PhotoURL, u.IsDisabled, profile, lastLogin, createdAt)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, uid string) error {
	tag, err := r.pg.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping reports store reachability for health checks.
func (r *PGRepository) Ping(ctx context.Context) error {
	return r.pg.Ping(ctx)
}
