package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eden/internal/apperr"
	"eden/internal/auth"
	"eden/internal/models"
)

type credentials struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
}

type registration struct {
	credentials
	Email string `json:"email" binding:"omitempty,email"`
}

type userDTO struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  bool    `json:"isAdmin"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin()}
}

func (h *handler) register(c *gin.Context) {
	const op = "httpapi.register"
	var in registration
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, apperr.Validation(op, "username and password required"))
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		h.writeError(c, apperr.Validation(op, "username and password required"))
		return
	}
	if len(in.Password) < 6 {
		h.writeError(c, apperr.Validation(op, "password must be at least 6 characters"))
		return
	}
	// bcrypt reads at most 72 bytes
	if len(in.Password) > 72 {
		h.writeError(c, apperr.Validation(op, "password must be at most 72 bytes"))
		return
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	u := &models.User{Username: in.Username, PasswordHash: hash, Role: models.RoleUser}
	if email := strings.TrimSpace(in.Email); email != "" {
		u.Email = &email
	}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		h.writeError(c, err)
		return
	}
	h.Log.Info("user registered", "user_id", u.ID, "username", u.Username)

	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "token": token, "user": toUserDTO(u)})
}

func (h *handler) login(c *gin.Context) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, apperr.Validation("httpapi.login", "username and password required"))
		return
	}
	u, err := h.Users.ByUsername(c.Request.Context(), strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		h.writeError(c, err)
		return
	}
	if u == nil || !models.CheckPassword(u.PasswordHash, in.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "kind": "authentication"})
		return
	}
	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handler) me(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	u, err := h.Users.Get(c.Request.Context(), actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(u))
}
