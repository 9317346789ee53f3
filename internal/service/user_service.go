package service

import (
	"context"
	"fmt"

	"userapi/internal/models"
	"userapi/internal/repository"
)

type UserService struct {
	repo  repository.UserRepo
	creds Credentials
}

func NewUserService(repo repository.UserRepo, creds Credentials) *UserService {
	return &UserService{repo: repo, creds: creds}
}

func (s *UserService) List(ctx context.Context) ([]models.UserPublic, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (models.UserPublic, error) {
	return s.repo.GetByID(ctx, id)
}

// Create hashes the password and inserts the user.
func (s *UserService) Create(ctx context.Context, p CreateUserParams) (models.UserPublic, error) {
	hash, err := s.creds.Hash(ctx, p.Password)
	if err != nil {
		return models.UserPublic{}, fmt.Errorf("prepare credentials: %w", err)
	}
	return s.repo.Create(ctx, models.User{Username: p.Username, PasswordHash: hash})
}

func (s *UserService) Update(ctx context.Context, id int64, p UpdateUserParams) (models.UserPublic, error) {
	return s.repo.Update(ctx, id, p.Username)
}

func (s *UserService) Delete(ctx context.Context, id int64) (models.UserPublic, error) {
	return s.repo.Delete(ctx, id)
}
