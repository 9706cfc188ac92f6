package webserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/data"
	"github.com/grantdesk/grantdesk/src/api/types"
)

type Auth struct {
	db        *gorm.DB
	rdb       *redis.Client
	jwtSecret []byte
}

func NewAuth(db *gorm.DB, rdb *redis.Client, secret []byte) Auth {
	return Auth{db: db, rdb: rdb, jwtSecret: secret}
}

func (a Auth) Register(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" binding:"required,min=2,max=128"`
		Email    string `json:"email"    binding:"required,email,max=256"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing types.User
	if err := a.db.First(&existing, "email = ?", email).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"err": "email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to register"})
		return
	}

	user := types.User{
		ID:       uuid.NewString(),
		FullName: req.FullName,
		Email:    email,
		Password: string(hash),
		Role:     types.RoleResearcher,
	}
	if err := a.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to register"})
		return
	}

	if a.rdb != nil {
		token := uuid.NewString()
		if err := data.SetVerifyToken(c, a.rdb, token, user.ID); err != nil {
			log.Printf("Failed to store verification token for %s: %v", email, err)
		} else {
			log.Printf("Account verification for %s: %s/verify?token=%s",
				email, data.GetSettingDefault("frontend_url", "http://localhost:3000"), token)
		}
	}

	log.Printf("Registered %s from IP %s", email, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

// Verify consumes the one-time token mailed out at registration and
// marks the account verified.
func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	userID, err := data.TakeVerifyToken(c, a.rdb, req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "verification token expired or not found"})
		return
	}

	res := a.db.Model(&types.User{}).Where("id = ?", userID).Update("verified", true)
	if res.Error != nil || res.RowsAffected == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to verify account"})
		return
	}

	log.Printf("Account verified for user %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "account verified"})
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user types.User
	if err := a.db.First(&user, "email = ?", email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Printf("Failed login for %s from IP %s", email, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}

	token, err := issueJWT(user.ID, user.Role, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"fullName": user.FullName,
			"email":    user.Email,
			"role":     user.Role,
			"verified": user.Verified,
		},
	})
}

// ForgotPassword issues a one-time reset token. The response is the
// same whether or not the address is registered.
func (a Auth) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user types.User
	if err := a.db.First(&user, "email = ?", email).Error; err == nil {
		token := uuid.NewString()
		if err := data.SetResetToken(c, a.rdb, token, user.ID); err != nil {
			log.Printf("Failed to store reset token for %s: %v", email, err)
		} else {
			// Delivery belongs to the mailer consuming the stream; the
			// log line keeps local development workable.
			log.Printf("Password reset for %s: %s/reset-password?token=%s",
				email, data.GetSettingDefault("frontend_url", "http://localhost:3000"), token)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (a Auth) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"    binding:"required,uuid"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	userID, err := data.TakeResetToken(c, a.rdb, req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "reset token expired or not found"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to reset password"})
		return
	}
	if err := a.db.Model(&types.User{}).Where("id = ?", userID).
		Update("password", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to reset password"})
		return
	}

	log.Printf("Password reset completed for user %s", userID)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
