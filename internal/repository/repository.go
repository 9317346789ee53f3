package repository

import (
	"context"

	"userapi/internal/models"

	"github.com/jmoiron/sqlx"
)

// UserRepo runs the parameterized statements against the users table.
type UserRepo interface {
	List(ctx context.Context) ([]models.UserPublic, error)
	GetByID(ctx context.Context, id int64) (models.UserPublic, error)
	Create(ctx context.Context, u models.User) (models.UserPublic, error)
	Update(ctx context.Context, id int64, username string) (models.UserPublic, error)
	Delete(ctx context.Context, id int64) (models.UserPublic, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	Users UserRepo
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Users: NewUserRepository(db),
	}
}
