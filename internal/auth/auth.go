package auth

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lobbycast/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned when no session matches the presented token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session is one issued bearer token
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Service provides admin authentication backed by the users table. Sessions
// are in-memory; a restart logs every admin out, which is acceptable for a
// lobby dashboard.
type Service struct {
	database *sql.DB
	tokenTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a new auth service
func NewService(database *sql.DB, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		database: database,
		tokenTTL: tokenTTL,
		sessions: make(map[string]*Session),
	}
}

// EnsureAdmin creates the bootstrap admin user when it does not exist yet.
// The configured plaintext password is hashed and never stored.
func (s *Service) EnsureAdmin(email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var existing string
	err := s.database.QueryRow(`SELECT id FROM users WHERE email = ?`, email).Scan(&existing)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.database.Exec(`
		INSERT INTO users (id, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, 1, ?)`,
		uuid.New().String(), email, string(hash), time.Now(),
	)
	if err != nil {
		return err
	}
	log.Printf("Bootstrap admin created: %s", email)
	return nil
}

// Login verifies credentials and issues a bearer token
func (s *Service) Login(email, password string) (*Session, error) {
	var user models.User
	err := s.database.QueryRow(`
		SELECT id, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	session := &Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	log.Printf("Admin logged in: %s", user.Email)
	return session, nil
}

// Logout revokes a token. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Validate resolves a bearer token to its session
func (s *Service) Validate(token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// ExtractToken extracts the bearer token from the Authorization header
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Middleware rejects requests without a valid admin session
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}
		if _, err := s.Validate(token); err != nil {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionEmail returns the email for the request's session, or "" when the
// request is unauthenticated (dev endpoints).
func (s *Service) SessionEmail(r *http.Request) string {
	token := ExtractToken(r)
	if token == "" {
		return ""
	}
	session, err := s.Validate(token)
	if err != nil {
		return ""
	}
	return session.Email
}
