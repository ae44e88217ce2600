package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Repo interface {
	Create(ctx context.Context, q database.Querier, u *model.User) error
	ByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error)
	ByID(ctx context.Context, q database.Querier, id int64) (*model.User, error)
	UsernameTaken(ctx context.Context, q database.Querier, username string) (bool, error)
}

type repo struct{}

func New() Repo { return repo{} }

func (repo) Create(ctx context.Context, q database.Querier, u *model.User) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	return database.MapConstraint(err, "email or username already registered")
}

func (repo) ByEmail(ctx context.Context, q database.Querier, email string) (*model.User, error) {
	u := &model.User{}
	err := q.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %s not found", email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.User, error) {
	u := &model.User{}
	err := q.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (repo) UsernameTaken(ctx context.Context, q database.Querier, username string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&taken)
	return taken, err
}
