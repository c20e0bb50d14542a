package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/logging"
	"jewelry-storefront/internal/repository/resetcode"
	tokenrepo "jewelry-storefront/internal/repository/token"
	userrepo "jewelry-storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCode is returned for a wrong or expired reset code.
	ErrInvalidCode = errors.New("invalid or expired code")
)

const (
	codeDigits = 6
	codeTTL    = 10 * time.Minute
)

// Service handles signup, login, logout and password reset flows.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	tokenRepo   tokenrepo.Repository
	codes       resetcode.Store
	logger      *zap.Logger
	accessTTL   time.Duration
	passwordMin int
	newCode     func() (string, error)
}

type Option func(*Service)

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.accessTTL = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l).Named("user_service") }
}

// New creates a Service with sane defaults.
func New(repo userrepo.Repository, tokens tokenrepo.Repository, codes resetcode.Store, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		tokenRepo:   tokens,
		codes:       codes,
		logger:      zap.NewNop(),
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
		newCode:     randomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Signup registers a new user and signs them in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	u, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(ctx, u.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", u.ID))
	return u, token, nil
}

// Login validates credentials and returns the user with a new access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, u.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

// Logout revokes the given access token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword issues a reset code for a registered email. Unknown emails
// succeed silently so callers cannot probe for accounts. Codes are logged
// instead of mailed.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("reset code requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.codes.Save(ctx, email, code, codeTTL); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}
	s.logger.Info("reset code issued", zap.String("user_id", u.ID), zap.String("code", code), zap.Duration("ttl", codeTTL))
	return nil
}

// VerifyCode consumes a reset code. When newPassword is set the password is
// replaced and every session of the user is revoked.
func (s *Service) VerifyCode(ctx context.Context, email, code, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if len(code) != codeDigits {
		return ErrInvalidCode
	}
	newPassword = strings.TrimSpace(newPassword)
	if newPassword != "" {
		if err := validatePassword(newPassword, s.passwordMin); err != nil {
			return err
		}
	}
	ok, err := s.codes.Consume(ctx, email, code)
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}
	if newPassword == "" {
		return nil
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		return err
	}
	if err := s.tokenRepo.DeleteByUser(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", u.ID))
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", domain.Invalid("email", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.Invalid("email", "invalid address")
	}
	return email, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return domain.Invalid("password", fmt.Sprintf("must be at least %d characters", min))
	}
	if len(trimmed) > maxPasswordBytes {
		return domain.Invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalid("password", "must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
