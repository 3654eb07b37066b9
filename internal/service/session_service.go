package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/cache"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"gorm.io/gorm"
)

const (
	// Cache key namespace for token -> user id bindings.
	tokenKeyPrefix = "api-token."
	// Fixed context label mixed into every signature, so a MAC minted
	// here verifies nowhere else.
	signerLabel = "wrath-ctf"
	// 24 bytes of randomness, 32 characters once base64url-encoded.
	tokenRandomBytes = 24
)

// SessionUserStore is the slice of the user repository session
// resolution needs.
type SessionUserStore interface {
	FindByID(id uint) (*model.User, error)
}

// SessionService turns a successful authentication into an opaque
// bearer credential and back. The credential is a random cache key
// plus an HMAC signature: the signature rejects tampered keys without
// a store round-trip, and a compromised cache alone cannot mint valid
// credentials because it never sees the signing secret.
type SessionService struct {
	store  cache.Store
	users  SessionUserStore
	secret []byte
	ttl    time.Duration
}

func NewSessionService(store cache.Store, users SessionUserStore, secret string, ttl time.Duration) *SessionService {
	return &SessionService{
		store:  store,
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *SessionService) sign(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signerLabel))
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue binds a fresh random token to the user in the cache and
// returns the signed credential `token.signature`.
func (s *SessionService) Issue(ctx context.Context, user *model.User) (string, error) {
	raw := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	err := s.store.Set(ctx, tokenKeyPrefix+token, strconv.FormatUint(uint64(user.ID), 10), s.ttl)
	if err != nil {
		return "", err
	}
	return token + "." + s.sign(token), nil
}

// Resolve verifies a presented credential and loads its user. Every
// failure mode (bad signature, evicted cache entry, unknown user)
// collapses into the same ErrAuthRequired so callers learn nothing
// about why a credential was rejected.
func (s *SessionService) Resolve(ctx context.Context, key string) (*model.User, error) {
	token, ok := s.verify(key)
	if !ok {
		return nil, util.ErrAuthRequired
	}

	val, err := s.store.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, util.ErrAuthRequired
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, util.ErrAuthRequired
	}

	user, err := s.users.FindByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAuthRequired
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Revoke forgets the cache binding; the signature alone is then
// worthless.
func (s *SessionService) Revoke(ctx context.Context, key string) error {
	token, ok := s.verify(key)
	if !ok {
		return util.ErrAuthRequired
	}
	return s.store.Del(ctx, tokenKeyPrefix+token)
}

func (s *SessionService) verify(key string) (string, bool) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 {
		return "", false
	}
	token, sig := key[:idx], key[idx+1:]

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signerLabel))
	mac.Write([]byte(token))
	expected := mac.Sum(nil)

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, expected) {
		return "", false
	}
	return token, true
}
