package auth

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already taken")
)

// Seed is one preconfigured account. Passwords arrive in plain text
// from config and are hashed before they ever hit the table.
type Seed struct {
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	DisplayName string `mapstructure:"display_name"`
}

// UserStore is the in-memory user table. It lives for the process
// lifetime; persistence is out of scope for this service.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by lower-cased username
}

// NewUserStore creates a user store populated from the seed accounts.
func NewUserStore(seeds []Seed) (*UserStore, error) {
	s := &UserStore{
		users: make(map[string]*domain.User),
	}
	for _, seed := range seeds {
		if _, err := s.Create(seed.Username, seed.Password, seed.DisplayName); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create adds a user with a bcrypt-hashed password.
func (s *UserStore) Create(username, password, displayName string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return nil, ErrUserExists
	}
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	s.users[key] = user
	return user, nil
}

// Get looks a user up by username, case-insensitively.
func (s *UserStore) Get(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Authenticate verifies the username and password pair.
func (s *UserStore) Authenticate(username, password string) (*domain.User, error) {
	user, err := s.Get(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
