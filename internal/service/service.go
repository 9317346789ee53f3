package service

import (
	"context"

	"userapi/internal/models"
	"userapi/internal/repository"
)

// Users exposes the CRUD operations of the user resource.
type Users interface {
	List(ctx context.Context) ([]models.UserPublic, error)
	Get(ctx context.Context, id int64) (models.UserPublic, error)
	Create(ctx context.Context, p CreateUserParams) (models.UserPublic, error)
	Update(ctx context.Context, id int64, p UpdateUserParams) (models.UserPublic, error)
	Delete(ctx context.Context, id int64) (models.UserPublic, error)
}

// Credentials derives and checks secret-keyed password hashes.
type Credentials interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encoded string) (bool, error)
}

// Health reports store reachability.
type Health interface {
	Ping(ctx context.Context) error
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Users
	Credentials
	Health
}

// NewService wires the repository layer and the configured hasher into concrete services.
func NewService(repos *repository.Repository, creds Credentials) *Service {
	return &Service{
		Users:       NewUserService(repos.Users, creds),
		Credentials: creds,
		Health:      repos.Users,
	}
}
