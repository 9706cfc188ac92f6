package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/types"
)

// Calls is the read-only surface of the call registry. Authoring and
// publication of calls happen out of band.
type Calls struct {
	db *gorm.DB
}

func NewCalls(db *gorm.DB) Calls {
	return Calls{db: db}
}

func (h Calls) List(c *gin.Context) {
	q := h.db.Order("deadline asc")
	// Researchers only see calls that have been published; admins see
	// the lot.
	if c.GetString("role") != types.RoleAdmin {
		q = q.Where("status IN ?", []string{types.CallPublished, types.CallClosed})
	}
	var calls []types.Call
	q.Find(&calls)
	c.JSON(http.StatusOK, calls)
}

func (h Calls) Get(c *gin.Context) {
	var call types.Call
	if err := h.db.First(&call, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "call not found"})
		return
	}
	if call.Status == types.CallDraft && c.GetString("role") != types.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{"err": "call not found"})
		return
	}
	c.JSON(http.StatusOK, call)
}
