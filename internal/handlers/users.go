package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"userapi/internal/repository"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"

	errInvalidBodyPref = "invalid body: "
	errInvalidIDPref   = "invalid user id: "
)

// createUserRequest requires both fields to be present with string values.
type createUserRequest struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"required"`
}

// CreateUserRequest is an exported model for Swagger docs of the createUser payload.
type CreateUserRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"p@ss"`
}

// UpdateUserRequest is an exported model for Swagger docs of the updateUser payload.
type UpdateUserRequest struct {
	Username string `json:"username" example:"bob"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.Request.URL.Path, "err", err)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// pathIDOrBadRequest decodes the :id segment as a 32-bit integer.
func (h *Handler) pathIDOrBadRequest(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidIDPref + strconv.Quote(raw)})
		return 0, false
	}
	return id, true
}

// storeError logs err and renders it as a JSON string body. Every failure is a
// 500 unless strict errors are enabled, in which case unknown ids answer 404.
func (h *Handler) storeError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := http.StatusInternalServerError
	if h.strictErrors {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			code = http.StatusNotFound
		case errors.Is(err, service.ErrHasherBusy):
			code = http.StatusServiceUnavailable
		}
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err, "status", code}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, err.Error())
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	if err := h.services.Health.Ping(c.Request.Context()); err != nil {
		if h.log != nil {
			h.log.Errorw("health_ping_failed", "err", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusUnavailable})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.UserPublic
// @Failure      500  {string}  string
// @Router       /users [get]
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.Users.List(c.Request.Context())
	if err != nil {
		h.storeError(c, "user_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.UserPublic
// @Failure      400  {object}  map[string]string
// @Failure      404  {string}  string  "only with api.strict_errors"
// @Failure      500  {string}  string
// @Router       /users/{id} [get]
func (h *Handler) getUser(c *gin.Context) {
	id, ok := h.pathIDOrBadRequest(c)
	if !ok {
		return
	}
	u, err := h.services.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, "user_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Create user
// @Description  The password is stored as a secret-keyed hash and never returned.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      CreateUserRequest  true  "User payload"
// @Success      201   {object}  models.UserPublic
// @Failure      400   {object}  map[string]string
// @Failure      500   {string}  string
// @Router       /users [post]
func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	u, err := h.services.Users.Create(c.Request.Context(), service.CreateUserParams{
		Username: *req.Username,
		Password: *req.Password,
	})
	if err != nil {
		h.storeError(c, "user_create_failed", err, "username", *req.Username)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary      Rename user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User ID"
// @Param        body  body      UpdateUserRequest  true  "New username"
// @Success      200   {object}  models.UserPublic
// @Failure      400   {object}  map[string]string
// @Failure      404   {string}  string  "only with api.strict_errors"
// @Failure      500   {string}  string
// @Router       /users/{id} [put]
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := h.pathIDOrBadRequest(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	u, err := h.services.Users.Update(c.Request.Context(), id, service.UpdateUserParams{Username: *req.Username})
	if err != nil {
		h.storeError(c, "user_update_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Delete user
// @Description  Returns the record as it was before deletion.
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.UserPublic
// @Failure      400  {object}  map[string]string
// @Failure      404  {string}  string  "only with api.strict_errors"
// @Failure      500  {string}  string
// @Router       /users/{id} [delete]
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.pathIDOrBadRequest(c)
	if !ok {
		return
	}
	u, err := h.services.Users.Delete(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, "user_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}
