package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lumenhq/lumen/core"
	"github.com/lumenhq/lumen/login"
)

func NewAccountService(db *DB) *PgAccountService {
	return &PgAccountService{db}
}

// Postgres implementation of the login AccountService interface.
type PgAccountService struct {
	db *DB
}

// Force struct to implement the core interface
var _ login.AccountService = &PgAccountService{}

func (s *PgAccountService) CreateUserAccount(
	ctx context.Context,
	data *login.UserData,
) (*core.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // check rollback documentation

	email, err := core.ParseEmailAddress(data.Email)
	if err != nil {
		return nil, err
	}

	name := data.Name
	if len(name) == 0 {
		name = data.Nickname
	}

	var (
		id     uint32
		joined time.Time
	)
	err = tx.QueryRow(
		ctx,
		`INSERT INTO lumen_users (name, email) VALUES ($1, $2) RETURNING id, joined`,
		name, email.String(),
	).Scan(&id, &joined)
	if err != nil {
		return nil, fmt.Errorf("cannot create user: %w", convertPgError(err))
	}

	_, err = tx.Exec(
		ctx,
		`INSERT INTO lumen_accounts (user_id, provider, provider_id) VALUES ($1, $2, $3)`,
		id, data.Provider, data.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create account: %w", convertPgError(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	userID, err := core.NewUserID(id)
	if err != nil {
		return nil, err
	}
	return &core.User{
		ID:     userID,
		Name:   name,
		Email:  email,
		Joined: joined,
	}, nil
}

func (s *PgAccountService) FindUser(
	ctx context.Context,
	data *login.UserData,
) (*core.User, error) {
	var (
		id     uint32
		name   string
		email  string
		joined time.Time
	)
	err := s.db.QueryRow(
		ctx,
		`SELECT u.id, u.name, u.email, u.joined
		   FROM lumen_users u
		   JOIN lumen_accounts a ON a.user_id = u.id
		  WHERE a.provider = $1 AND a.provider_id = $2`,
		data.Provider, data.ID,
	).Scan(&id, &name, &email, &joined)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrUserDoesNotExist
	} else if err != nil {
		return nil, convertPgError(err)
	}
	return convertUser(id, name, email, joined)
}

// DeleteUser removes a user together with all of their provider accounts.
func (s *PgAccountService) DeleteUser(ctx context.Context, id core.UserID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM lumen_users WHERE id = $1`, uint32(id))
	return convertPgError(err)
}

// ListUsers retrieves every known user, ordered by the time they joined.
func (s *PgAccountService) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT id, name, email, joined FROM lumen_users ORDER BY joined`,
	)
	if err != nil {
		return nil, convertPgError(err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var (
			id     uint32
			name   string
			email  string
			joined time.Time
		)
		if err := rows.Scan(&id, &name, &email, &joined); err != nil {
			return nil, err
		}
		user, err := convertUser(id, name, email, joined)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func convertUser(id uint32, name string, email string, joined time.Time) (*core.User, error) {
	userID, err := core.NewUserID(id)
	if err != nil {
		return nil, err
	}
	address, err := core.ParseEmailAddress(email)
	if err != nil {
		return nil, err
	}
	return &core.User{
		ID:     userID,
		Name:   name,
		Email:  address,
		Joined: joined,
	}, nil
}
