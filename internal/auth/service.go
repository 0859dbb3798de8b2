package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"attendtrack/internal/apperr"
	"attendtrack/internal/metrics"
	"attendtrack/internal/model"
)

// Directory is the account store used for sign-in.
type Directory interface {
	FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, a *model.Admin) error
	FindStudentByRoll(ctx context.Context, roll string) (*model.Student, error)
}

// Service signs admins and students in and out.
type Service struct {
	dir     Directory
	issuer  Issuer
	revoker Revoker
	// rollFallback lets a student sign in with an empty password when the
	// initial credential is the roll number itself.
	rollFallback bool
	log          zerolog.Logger
}

func NewService(dir Directory, issuer Issuer, revoker Revoker, rollFallback bool, log zerolog.Logger) *Service {
	return &Service{dir: dir, issuer: issuer, revoker: revoker, rollFallback: rollFallback, log: log}
}

// Issuer returns the token issuer, used for cookie lifetimes.
func (s *Service) Issuer() Issuer { return s.issuer }

// AdminLogin checks an admin's email and password.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (Token, *model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Token{}, nil, apperr.Invalid("", "email and password are required")
	}
	admin, err := s.dir.FindAdminByEmail(ctx, email)
	if err != nil {
		return Token{}, nil, err
	}
	if admin == nil || !VerifyPassword(admin.PasswordHash, password) {
		metrics.Logins.WithLabelValues("admin", "failed").Inc()
		return Token{}, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	tok, err := s.issuer.Issue(admin.ID, model.RoleAdmin)
	if err != nil {
		return Token{}, nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.Logins.WithLabelValues("admin", "ok").Inc()
	return tok, admin, nil
}

// StudentLogin checks a student's roll number and password.
func (s *Service) StudentLogin(ctx context.Context, roll, password string) (Token, *model.Student, error) {
	roll = model.NormalizeRoll(roll)
	if roll == "" {
		return Token{}, nil, apperr.Invalid("rollNumber", "roll number is required")
	}
	st, err := s.dir.FindStudentByRoll(ctx, roll)
	if err != nil {
		return Token{}, nil, err
	}
	if st == nil {
		metrics.Logins.WithLabelValues("student", "failed").Inc()
		return Token{}, nil, fmt.Errorf("student not found: %w", apperr.ErrUnauthorized)
	}
	if password == "" && s.rollFallback {
		password = roll
	}
	if !VerifyPassword(st.PasswordHash, password) {
		metrics.Logins.WithLabelValues("student", "failed").Inc()
		return Token{}, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	tok, err := s.issuer.Issue(st.ID, model.RoleStudent)
	if err != nil {
		return Token{}, nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.Logins.WithLabelValues("student", "ok").Inc()
	return tok, st, nil
}

// Logout revokes raw until its expiry. Unparseable tokens are ignored since
// they cannot authenticate anyway.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" || s.revoker == nil {
		return nil
	}
	claims, err := s.issuer.Parse(raw)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, raw, claims.ExpiresAt.Time)
}

// SeedAdmin creates the bootstrap admin unless one with that email exists.
func (s *Service) SeedAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.log.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	existing, err := s.dir.FindAdminByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Info().Str("email", email).Msg("admin already exists")
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.dir.CreateAdmin(ctx, &model.Admin{Email: email, Name: name, PasswordHash: hash, Role: model.RoleAdmin}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("seeded admin")
	return nil
}
