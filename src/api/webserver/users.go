package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/types"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) Users {
	return Users{db: db}
}

func (u Users) Me(c *gin.Context) {
	var user types.User
	if err := u.db.First(&user, "id = ?", c.GetString("uid")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"fullName": user.FullName,
		"email":    user.Email,
		"role":     user.Role,
		"verified": user.Verified,
	})
}

// UpdateMe changes the caller's profile. Email and role are immutable
// here; role changes go through the admin surface.
func (u Users) UpdateMe(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" binding:"required,min=2,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := u.db.Model(&types.User{}).Where("id = ?", c.GetString("uid")).
		Update("full_name", req.FullName).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to update profile"})
		return
	}
	u.Me(c)
}

func (u Users) Notifications(c *gin.Context) {
	var ns []types.Notification
	u.db.Where("user_id = ?", c.GetString("uid")).
		Order("created_at desc").
		Find(&ns)
	c.JSON(http.StatusOK, ns)
}

func (u Users) MarkNotificationRead(c *gin.Context) {
	res := u.db.Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), c.GetString("uid")).
		Update("is_read", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
