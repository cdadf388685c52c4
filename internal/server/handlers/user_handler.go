package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storeops-system/internal/database/models"
	"storeops-system/internal/server/middleware"
	"storeops-system/internal/utils"
)

type UserHandler struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{db: db, tokenTTL: tokenTTL}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	RoleID    int32  `json:"role_id" binding:"required"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	RoleID    int32  `json:"role_id"`
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		RoleID:    u.RoleID,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var role models.Role
	if err := h.db.First(&role, req.RoleID).Error; err != nil {
		fail(c, http.StatusBadRequest, "invalid role specified")
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, http.StatusInternalServerError, "error hashing password")
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(pwHash),
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		RoleID:    req.RoleID,
		IsActive:  true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		fail(c, http.StatusBadRequest, "error creating user")
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, h.tokenTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "error generating token")
		return
	}

	success(c, gin.H{
		"user":       userToResponse(&user),
		"token":      token,
		"expired_at": exp,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := h.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, h.tokenTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "error generating token")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	h.db.Save(&user)

	success(c, gin.H{
		"user":       userToResponse(&user),
		"token":      token,
		"expired_at": exp,
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	success(c, userToResponse(&user))
}
