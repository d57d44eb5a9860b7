package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	EmployeeNumber string     `json:"employeeNumber"`
	Department     string     `json:"department"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	MFAEnabled     bool       `json:"mfaEnabled"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
}

type AuthUser struct {
	ID           string
	Role         string
	PasswordHash string
	MFAEnabled   bool
	MFASecret    string
}

func (s *Store) FindActiveByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	var secret *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, role, password_hash, mfa_enabled, mfa_secret
    FROM users
    WHERE email = $1 AND status = $2
  `, email, UserStatusActive).Scan(&out.ID, &out.Role, &out.PasswordHash, &out.MFAEnabled, &secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	if err != nil {
		return AuthUser{}, err
	}
	if secret != nil {
		out.MFASecret = *secret
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, employeeNumber, department, role string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, employee_number, department, role, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, name, email, employee_number, department, role, status, mfa_enabled, created_at, last_login
  `, name, email, passwordHash, employeeNumber, department, role, UserStatusActive).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmployeeNumber, &user.Department,
		&user.Role, &user.Status, &user.MFAEnabled, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_employee_number_key" {
				return User{}, ErrEmployeeNumberTaken
			}
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

var ErrEmployeeNumberTaken = errors.New("employee number collision")

func (s *Store) PasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := s.DB.QueryRow(ctx, "SELECT password_hash FROM users WHERE id = $1", userID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return hash, err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE email = $1 AND status = $2", email, UserStatusActive).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return id, err
}

func (s *Store) SetMFASecret(ctx context.Context, userID, secret string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret = $1 WHERE id = $2", secret, userID)
	return err
}

func (s *Store) MFASecret(ctx context.Context, userID string) (string, error) {
	var secret *string
	err := s.DB.QueryRow(ctx, "SELECT mfa_secret FROM users WHERE id = $1", userID).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil || secret == nil {
		return "", err
	}
	return *secret, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (user_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
  `, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrResetTokenInvalid
	}
	return userID, err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token_hash = $1", tokenHash)
	return err
}
