package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/lifecycle"
	"github.com/grantdesk/grantdesk/src/api/types"
)

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin {
	return Admin{db: db}
}

// AdminMiddleware rechecks the role against the database so a
// demotion takes effect before the token expires.
func AdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user types.User
		if err := db.First(&user, "id = ?", c.GetString("uid")).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			c.Abort()
			return
		}
		if user.Role != types.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a Admin) Stats(c *gin.Context) {
	var proposals, users, calls int64
	a.db.Model(&types.Proposal{}).Count(&proposals)
	a.db.Model(&types.User{}).Count(&users)
	a.db.Model(&types.Call{}).Count(&calls)

	type agg struct {
		Status string
		Count  int64
	}
	var rows []agg
	a.db.Model(&types.Proposal{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows)

	byStatus := map[string]int64{}
	for _, r := range rows {
		byStatus[r.Status] = r.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"proposalsCount":      proposals,
		"usersCount":          users,
		"callsCount":          calls,
		"proposalStatusStats": byStatus,
	})
}

func (a Admin) Proposals(c *gin.Context) {
	q := a.db.Order("created_at desc")
	if st := c.Query("status"); st != "" {
		if !lifecycle.ValidStatus(lifecycle.Status(st)) {
			c.JSON(http.StatusBadRequest, gin.H{"err": "unknown status"})
			return
		}
		q = q.Where("status = ?", st)
	}
	if callID := c.Query("callId"); callID != "" {
		q = q.Where("call_id = ?", callID)
	}
	var ps []types.Proposal
	q.Find(&ps)
	c.JSON(http.StatusOK, ps)
}

func (a Admin) Users(c *gin.Context) {
	var users []types.User
	a.db.Order("created_at asc").Find(&users)

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":       u.ID,
			"fullName": u.FullName,
			"email":    u.Email,
			"role":     u.Role,
			"verified": u.Verified,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a Admin) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=RESEARCHER ADMIN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	log.Printf("Admin %s setting role of user %s to %s", c.GetString("uid"), c.Param("id"), req.Role)

	res := a.db.Model(&types.User{}).Where("id = ?", c.Param("id")).Update("role", req.Role)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
