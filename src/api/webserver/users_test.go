package webserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grantdesk/grantdesk/src/api/types"
)

func TestUpdateProfile(t *testing.T) {
	r, db := newTestRouter(t)
	u, token := seedUser(t, db, types.RoleResearcher)

	w := doJSON(r, http.MethodPut, "/v1/users/me", token, map[string]any{"fullName": "Grace Researcher"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	decode(t, w, &resp)
	require.Equal(t, "Grace Researcher", resp.FullName)
	require.Equal(t, u.Email, resp.Email)

	var stored types.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	require.Equal(t, "Grace Researcher", stored.FullName)
	require.Equal(t, u.Role, stored.Role)

	t.Run("name too short", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/v1/users/me", token, map[string]any{"fullName": "x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires auth", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/v1/users/me", "", map[string]any{"fullName": "Grace Researcher"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
