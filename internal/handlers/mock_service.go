package handlers

import (
	"context"

	"userapi/internal/logger"
	"userapi/internal/models"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockUsers struct {
	listResp []models.UserPublic
	listErr  error
	user     models.UserPublic
	err      error

	lastID     int64
	lastCreate service.CreateUserParams
	lastUpdate service.UpdateUserParams
	calls      int
}

func (m *mockUsers) List(ctx context.Context) ([]models.UserPublic, error) {
	m.calls++
	return m.listResp, m.listErr
}
func (m *mockUsers) Get(ctx context.Context, id int64) (models.UserPublic, error) {
	m.calls++
	m.lastID = id
	return m.user, m.err
}
func (m *mockUsers) Create(ctx context.Context, p service.CreateUserParams) (models.UserPublic, error) {
	m.calls++
	m.lastCreate = p
	return m.user, m.err
}
func (m *mockUsers) Update(ctx context.Context, id int64, p service.UpdateUserParams) (models.UserPublic, error) {
	m.calls++
	m.lastID = id
	m.lastUpdate = p
	return m.user, m.err
}
func (m *mockUsers) Delete(ctx context.Context, id int64) (models.UserPublic, error) {
	m.calls++
	m.lastID = id
	return m.user, m.err
}

type mockHealth struct {
	err error
}

func (m *mockHealth) Ping(ctx context.Context) error { return m.err }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	return newLoggedTestRouter(s, nil, opts...)
}

func newLoggedTestRouter(s *service.Service, log *logger.Logger, opts ...Option) *gin.Engine {
	h := NewHandler(s, log, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
