package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/service"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStore struct {
	m map[string]string
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	return s.m[key], nil
}

func (s *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.m[key] = value
	return nil
}

func (s *memStore) Del(ctx context.Context, key string) error {
	delete(s.m, key)
	return nil
}

type oneUserStore struct {
	user *model.User
}

func (s *oneUserStore) FindByID(id uint) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func resolverFixture(t *testing.T) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)

	user := &model.User{BaseModel: model.BaseModel{ID: 9}, Name: "alice"}
	sessions := service.NewSessionService(
		&memStore{m: make(map[string]string)},
		&oneUserStore{user: user},
		"a secret key at least this long....",
		time.Hour,
	)
	key, err := sessions.Issue(context.Background(), user)
	require.NoError(t, err)

	r := gin.New()
	r.Use(SessionResolver(sessions))
	r.GET("/whoami", func(c *gin.Context) {
		if u := util.CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Name)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r, key
}

func get(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionResolverHeader(t *testing.T) {
	r, key := resolverFixture(t)
	w := get(r, "X-Session-Key", key)
	assert.Equal(t, "alice", w.Body.String())
}

func TestSessionResolverBearerFallback(t *testing.T) {
	r, key := resolverFixture(t)
	w := get(r, "Authorization", "Bearer "+key)
	assert.Equal(t, "alice", w.Body.String())
}

func TestSessionResolverLeavesAnonymous(t *testing.T) {
	r, _ := resolverFixture(t)

	// No credential, a mangled one, a forged one: all stay anonymous
	// without aborting the chain.
	for _, w := range []*httptest.ResponseRecorder{
		get(r, "", ""),
		get(r, "X-Session-Key", "not-a-key"),
		get(r, "X-Session-Key", "token.Zm9yZ2Vk"),
	} {
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	}
}

func TestSessionResolverPrefersHeaderOverBearer(t *testing.T) {
	r, key := resolverFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Session-Key", key)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "alice", w.Body.String())
}
