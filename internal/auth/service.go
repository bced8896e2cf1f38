package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sftlabs/sft-registry/internal/platform/identifier"
)

const minimumPasswordLength = 8

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet minimum length")
)

// User is an API account. Accounts live in memory and are bootstrapped
// into elevated roles by email.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Session is the refresh-session state tracked server-side. Only the
// hash of the refresh token is kept.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	ExpiresAt        time.Time
}

// Service provides first-party account and session management.
type Service struct {
	mu             sync.RWMutex
	usersByID      map[string]User
	usersByEmail   map[string]string
	sessionsByID   map[string]Session
	bootstrapRoles map[string]Role
}

func NewService(bootstrapRoles map[string]Role) *Service {
	normalized := make(map[string]Role, len(bootstrapRoles))
	for email, role := range bootstrapRoles {
		normalized[strings.ToLower(strings.TrimSpace(email))] = role
	}

	return &Service{
		usersByID:      make(map[string]User),
		usersByEmail:   make(map[string]string),
		sessionsByID:   make(map[string]Session),
		bootstrapRoles: normalized,
	}
}

// BuildBootstrapRoleMap assigns elevated roles to comma-separated email
// lists. Everyone else registers as a viewer.
func BuildBootstrapRoleMap(admins, operators string) map[string]Role {
	assignments := make(map[string]Role)
	assign(assignments, operators, RoleOperator)
	assign(assignments, admins, RoleAdmin)
	return assignments
}

func assign(assignments map[string]Role, emails string, role Role) {
	for _, raw := range strings.Split(emails, ",") {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}
		assignments[email] = role
	}
}

func (s *Service) Register(email, plainPassword string) (User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return User{}, ErrInvalidCredentials
	}

	hash, err := hashPassword(plainPassword)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[normalized]; exists {
		return User{}, ErrEmailInUse
	}

	role := RoleViewer
	if bootstrappedRole, exists := s.bootstrapRoles[normalized]; exists {
		role = bootstrappedRole
	}

	user := User{
		ID:           identifier.New("usr"),
		Email:        normalized,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	s.usersByID[user.ID] = user
	s.usersByEmail[normalized] = user.ID
	return user, nil
}

func (s *Service) Authenticate(email, plainPassword string) (User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	userID, exists := s.usersByEmail[normalized]
	if !exists {
		s.mu.RUnlock()
		return User{}, ErrInvalidCredentials
	}
	user := s.usersByID[userID]
	s.mu.RUnlock()

	if !verifyPassword(user.PasswordHash, plainPassword) {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) GetUserByID(userID string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.usersByID[userID]
	return user, exists
}

func (s *Service) SaveSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionsByID[session.ID] = session
}

func (s *Service) GetSession(sessionID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessionsByID[sessionID]
	return session, exists
}

func (s *Service) DeleteSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionsByID, sessionID)
}

func hashPassword(plain string) (string, error) {
	if len(plain) < minimumPasswordLength {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
