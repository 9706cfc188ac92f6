package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grantdesk/grantdesk/src/api/lifecycle"
)

// respondError maps the lifecycle error taxonomy onto HTTP. Anything
// outside the taxonomy is an internal error and stays opaque.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"err": "validation", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"err": "forbidden", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "not_found", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrStaleState):
		c.JSON(http.StatusConflict, gin.H{"err": "stale_state", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrWrongState):
		c.JSON(http.StatusConflict, gin.H{"err": "wrong_state", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "invalid_transition", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal"})
	}
}

// currentActor rebuilds the lifecycle actor from the verified claims
// the JWT middleware stored on the context.
func currentActor(c *gin.Context) lifecycle.Actor {
	return lifecycle.Actor{ID: c.GetString("uid"), Role: c.GetString("role")}
}
