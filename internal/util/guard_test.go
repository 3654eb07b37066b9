package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestCurrentUser(t *testing.T) {
	c, _ := testContext()
	assert.Nil(t, CurrentUser(c))

	user := &model.User{Name: "alice"}
	c.Set(ContextUserKey, user)
	assert.Equal(t, user, CurrentUser(c))
}

func TestRequireUser(t *testing.T) {
	c, w := testContext()
	_, ok := RequireUser(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "X-Session-Key")

	c, w = testContext()
	c.Set(ContextUserKey, &model.User{Name: "alice"})
	user, ok := RequireUser(c)
	assert.True(t, ok)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireTeam(t *testing.T) {
	// Anonymous: 401 wins over 403.
	c, w := testContext()
	_, _, ok := RequireTeam(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Signed in, no team.
	c, w = testContext()
	c.Set(ContextUserKey, &model.User{Name: "alice"})
	_, _, ok = RequireTeam(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), ErrNoTeam.Error())

	// Signed in with a team.
	c, w = testContext()
	team := &model.Team{Name: "hufflepuff"}
	c.Set(ContextUserKey, &model.User{Name: "alice", Team: team})
	user, got, ok := RequireTeam(c)
	assert.True(t, ok)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, team, got)
	assert.Equal(t, http.StatusOK, w.Code)
}
