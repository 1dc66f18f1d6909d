package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/isdelr/auth-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// bcryptCost pins the hashing cost to 10 rounds.
const bcryptCost = 10

// dummyHash is a bcrypt hash compared against when a login targets an
// unknown email, so the response time does not reveal whether the
// account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string, includePasswordHash bool) (models.User, error)
	CreateUser(name, email, password string) (models.User, error)
	VerifyPassword(user models.User, password string) bool
	AuthenticateUser(email, password string) (models.User, error)
}

// UserService provides business logic for user credentials.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// normalizeEmail lowercases and trims an email so comparisons and the
// unique index are effectively case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateNewUser(email, password string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return &ValidationError{Reason: "email: " + err.Error()}
	}
	if err := validation.Validate(password, validation.Required, validation.Length(6, 72)); err != nil {
		return &ValidationError{Reason: "password: " + err.Error()}
	}
	return nil
}

// CreateUser creates a new user, hashing their password. The email is
// normalized to lowercase before insert; a duplicate (case-insensitively)
// yields ErrDuplicateEmail, decided atomically by the unique index rather
// than by a check-then-insert in application code.
func (s *UserService) CreateUser(name, email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	if err := validateNewUser(email, password); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users(id, name, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// isUniqueViolation reports whether err is the SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to query user by id: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email. The password hash
// is omitted unless includePasswordHash is set; only callers that verify a
// password should opt in.
func (s *UserService) GetUserByEmail(email string, includePasswordHash bool) (models.User, error) {
	var user models.User
	var err error
	if includePasswordHash {
		row := s.db.QueryRow(
			"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?",
			normalizeEmail(email),
		)
		err = row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	} else {
		row := s.db.QueryRow(
			"SELECT id, name, email, created_at FROM users WHERE email = ?",
			normalizeEmail(email),
		)
		err = row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

// VerifyPassword checks a plaintext password against the user's stored hash.
// A mismatch is a plain false, not an error.
func (s *UserService) VerifyPassword(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// AuthenticateUser verifies a user's credentials. Unknown email and wrong
// password both return ErrInvalidCredentials; a dummy bcrypt comparison
// runs on the unknown-email path to keep the timing comparable.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	user, err := s.GetUserByEmail(email, true)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !s.VerifyPassword(user, password) {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
