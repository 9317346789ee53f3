package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"userapi/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrUserNotFound is returned when a single-row statement matches no row.
// It always travels together with sql.ErrNoRows.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *sqlx.DB

	listSQL   string
	getSQL    string
	insertSQL string
	updateSQL string
	deleteSQL string
}

// NewUserRepository prepares the statements for the driver db was opened with.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{
		db:        db,
		listSQL:   db.Rebind(selectUsersSQL),
		getSQL:    db.Rebind(selectUserByIDSQL),
		insertSQL: db.Rebind(insertUserSQL),
		updateSQL: db.Rebind(updateUserSQL),
		deleteSQL: db.Rebind(deleteUserSQL),
	}
}

// Ensure implementation of UserRepo interface at compile time.
var _ UserRepo = (*UserRepository)(nil)

const (
	selectUsersSQL    = `SELECT id, username FROM users ORDER BY id`
	selectUserByIDSQL = `SELECT id, username FROM users WHERE id = ?`
	insertUserSQL     = `INSERT INTO users (username, password) VALUES (?, ?) RETURNING id, username`
	updateUserSQL     = `UPDATE users SET username = ? WHERE id = ? RETURNING id, username`
	deleteUserSQL     = `DELETE FROM users WHERE id = ? RETURNING id, username`
)

// List returns every user. An empty table yields an empty, non-nil slice.
func (r *UserRepository) List(ctx context.Context) ([]models.UserPublic, error) {
	users := make([]models.UserPublic, 0)
	if err := r.db.SelectContext(ctx, &users, r.listSQL); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.UserPublic, error) {
	return r.one(ctx, "select user", id, r.getSQL, id)
}

// Create inserts u and returns the stored projection.
func (r *UserRepository) Create(ctx context.Context, u models.User) (models.UserPublic, error) {
	var out models.UserPublic
	if err := r.db.GetContext(ctx, &out, r.insertSQL, u.Username, u.PasswordHash); err != nil {
		return models.UserPublic{}, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return out, nil
}

// Update renames the user and returns the post-update projection.
func (r *UserRepository) Update(ctx context.Context, id int64, username string) (models.UserPublic, error) {
	return r.one(ctx, "update user", id, r.updateSQL, username, id)
}

// Delete removes the user and returns the projection it had before deletion.
func (r *UserRepository) Delete(ctx context.Context, id int64) (models.UserPublic, error) {
	return r.one(ctx, "delete user", id, r.deleteSQL, id)
}

func (r *UserRepository) one(ctx context.Context, op string, id int64, query string, args ...any) (models.UserPublic, error) {
	var out models.UserPublic
	err := r.db.GetContext(ctx, &out, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserPublic{}, fmt.Errorf("%s %d: %w: %w", op, id, ErrUserNotFound, err)
		}
		return models.UserPublic{}, fmt.Errorf("%s %d: %w", op, id, err)
	}
	return out, nil
}

// Ping reports whether the pool can reach the store.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
