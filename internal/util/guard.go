package util

import (
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/gin-gonic/gin"
)

// The session middleware resolves the credential once per request and
// stashes the user here. Handlers never re-parse the token.
const ContextUserKey = "currentUser"

// CurrentUser returns the authenticated user for this request, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// RequireUser is an explicit guard: handlers call it at the top and
// bail out when it reports false. It writes the 401 itself so every
// failure looks identical to the client.
func RequireUser(c *gin.Context) (*model.User, bool) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c)
		return nil, false
	}
	return user, true
}

// RequireTeam guards handlers that act on behalf of a team.
func RequireTeam(c *gin.Context) (*model.User, *model.Team, bool) {
	user, ok := RequireUser(c)
	if !ok {
		return nil, nil, false
	}
	if user.Team == nil {
		Forbidden(c, ErrNoTeam.Error())
		return nil, nil, false
	}
	return user, user.Team, true
}
