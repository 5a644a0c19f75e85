package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvhub/internal/api/middleware"
	"cvhub/internal/auth"
	"cvhub/internal/database"
	"cvhub/internal/role"
)

// UserHandler is the admin-only account CRUD surface.
type UserHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewUserHandler(db *gorm.DB, logger *slog.Logger) *UserHandler {
	return &UserHandler{db: db, logger: logger}
}

// ListUsers returns every account.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []database.User
	if err := h.db.WithContext(c.Request.Context()).Order("id").Find(&users).Error; err != nil {
		h.loggerFromContext(c).Error("list users", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	out := make([]sessionUserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newSessionUserResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type createUserRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=8,max=72"`
	FirstName string   `json:"firstName" binding:"required,min=2,max=64"`
	LastName  string   `json:"lastName" binding:"required,min=2,max=64"`
	Roles     []string `json:"roles" binding:"required,min=1"`
}

// CreateUser adds an account with an explicit role set.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	roles, err := parseRoles(req.Roles)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		Conflict(c, "email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("user lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user := database.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Roles:        roles,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user created", slog.Uint64("user_id", uint64(user.ID)))
	c.JSON(http.StatusCreated, newSessionUserResponse(user))
}

// GetUser returns one account by id.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionUserResponse(user))
}

type updateUserRequest struct {
	FirstName *string   `json:"firstName" binding:"omitempty,min=2,max=64"`
	LastName  *string   `json:"lastName" binding:"omitempty,min=2,max=64"`
	Password  *string   `json:"password" binding:"omitempty,min=8,max=72"`
	Roles     *[]string `json:"roles" binding:"omitempty,min=1"`
}

// UpdateUser applies a partial update to an account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.loggerFromContext(c).Error("hash password failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		updates["password_hash"] = hashed
	}
	if req.Roles != nil {
		roles, err := parseRoles(*req.Roles)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updates["roles"] = datatypes.NewJSONSlice(roles)
	}
	if len(updates) == 0 {
		BadRequest(c, "no fields to update")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(&user).Updates(updates).Error; err != nil {
		h.loggerFromContext(c).Error("update user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, newSessionUserResponse(user))
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	if callerID, ok := middleware.UserIDFromContext(c); ok && callerID == user.ID {
		BadRequest(c, "cannot delete own account")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&user).Error; err != nil {
		h.loggerFromContext(c).Error("delete user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) loadUser(c *gin.Context) (database.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid user id")
		return database.User{}, false
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return database.User{}, false
		}
		h.loggerFromContext(c).Error("load user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return database.User{}, false
	}
	return user, true
}

func parseRoles(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		parsed, err := role.Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func (h *UserHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
