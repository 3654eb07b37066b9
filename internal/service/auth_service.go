package service

import (
	"context"
	"errors"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthUserStore is the slice of the user repository registration and
// login need.
type AuthUserStore interface {
	Create(user *model.User) error
	FindByName(name string) (*model.User, error)
	NameTaken(name string) (bool, error)
}

type AuthService struct {
	users    AuthUserStore
	sessions *SessionService
	// Hash of a throwaway password, compared against when the
	// username does not exist so login latency does not reveal which
	// usernames are registered.
	dummyHash []byte
}

func NewAuthService(users AuthUserStore, sessions *SessionService) *AuthService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("ceci n'est pas un mot de passe"), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on an invalid cost, which is a constant here.
		panic(err)
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		dummyHash: dummy,
	}
}

// Register creates the account and logs it straight in, returning the
// signed session key.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, *model.User, error) {
	if username == "" || password == "" {
		return "", nil, util.ErrBadCredentials
	}

	taken, err := s.users.NameTaken(username)
	if err != nil {
		return "", nil, err
	}
	if taken {
		return "", nil, util.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	user := &model.User{Name: username, Password: string(hash)}
	if err := s.users.Create(user); err != nil {
		return "", nil, err
	}

	key, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return key, user, nil
}

// Login verifies the password and issues a session key. Unknown
// usernames and wrong passwords are indistinguishable: both burn a
// bcrypt comparison and both return the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.FindByName(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", nil, util.ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrBadCredentials
	}

	key, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return key, user, nil
}
