package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/denial-knowledge/csrbot/internal/blacklist"
	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/models"
	"github.com/denial-knowledge/csrbot/internal/repository"
	"github.com/denial-knowledge/csrbot/pkg/tokens"
)

// Login error messages. The precedence in LoginErrorMessage deliberately
// discloses whether a username is registered; the messages exist for UX only
// and are never consulted for authorization decisions.
const (
	MsgUsernameRequired  = "Username is required"
	MsgPasswordRequired  = "Password is required"
	MsgNotRegistered     = "This username is not registered. Please sign up first."
	MsgAccountInactive   = "This account is inactive. Please contact support."
	MsgIncorrectPassword = "Incorrect password. Please try again."
)

// fallbackRevocationTTL bounds a revocation entry whose token expiry could
// not be extracted.
const fallbackRevocationTTL = time.Hour

var (
	allDigitsRe = regexp.MustCompile(`^[0-9]+$`)
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// AuthService implements registration, credential verification, token
// issuance/validation and revocation. The revocation registry is the only
// shared mutable state it owns; everything else goes through the repository.
type AuthService struct {
	repo    repository.Repository
	codec   *tokens.Codec
	revoked blacklist.Registry
	log     *logging.Logger
}

func NewAuthService(repo repository.Repository, codec *tokens.Codec, revoked blacklist.Registry, log *logging.Logger) *AuthService {
	if log == nil {
		log = logging.Default()
	}
	return &AuthService{
		repo:    repo,
		codec:   codec,
		revoked: revoked,
		log:     log,
	}
}

// ValidateRegistration runs every field rule and both uniqueness checks and
// returns the full ordered list of violations. Violations are collected, not
// short-circuited, so a form client gets the complete picture in one round
// trip. A store-level failure comes back as the error.
func (s *AuthService) ValidateRegistration(ctx context.Context, req *models.RegisterRequest) ([]string, error) {
	if req == nil {
		return []string{"Registration data is required"}, nil
	}

	var violations []string

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)

	if username == "" {
		violations = append(violations, "Username is required")
	} else {
		if allDigitsRe.MatchString(username) {
			violations = append(violations, "Username cannot be only numbers")
		}
		first, _ := utf8.DecodeRuneInString(username)
		if !unicode.IsLetter(first) {
			violations = append(violations, "Username must start with a letter")
		}
		if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
			violations = append(violations, "Username length must be between 3 and 50")
		}
	}

	if email == "" {
		violations = append(violations, "Email is required")
	} else {
		if strings.Contains(email, " ") {
			violations = append(violations, "Email cannot contain spaces")
		}
		if !emailRe.MatchString(email) {
			violations = append(violations, "Email format is invalid")
		}
	}

	if password == "" {
		violations = append(violations, "Password is required")
	} else {
		if utf8.RuneCountInString(password) < 6 {
			violations = append(violations, "Password must be at least 6 characters")
		}
		if username != "" && strings.EqualFold(password, username) {
			violations = append(violations, "Password cannot be the same as username")
		}
		if at := strings.Index(email, "@"); at > 0 {
			if strings.EqualFold(password, email[:at]) {
				violations = append(violations, "Password cannot be the same as email username")
			}
		}
	}

	if username != "" {
		exists, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			violations = append(violations, "Username already exists")
		}
	}
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			violations = append(violations, "Email already exists")
		}
	}

	return violations, nil
}

// Register validates the request and, if acceptable, persists a new active
// user with role USER. The uniqueness pre-check and the insert are not
// atomic; a duplicate racing past the pre-check surfaces as a generic
// registration failure.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) *models.RegisterResponse {
	violations, err := s.ValidateRegistration(ctx, req)
	if err != nil {
		s.log.ErrorContext(ctx, "registration validation error", logging.Error(err))
		return &models.RegisterResponse{Success: false, Message: "Registration failed: " + err.Error()}
	}
	if len(violations) > 0 {
		msg := strings.Join(violations, "; ")
		s.log.WarnContext(ctx, "registration validation failed", slog.String("violations", msg))
		return &models.RegisterResponse{Success: false, Message: msg}
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.ErrorContext(ctx, "password hashing failed", logging.Error(err))
		return &models.RegisterResponse{Success: false, Message: "Registration failed: " + err.Error()}
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Active:       true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.log.ErrorContext(ctx, "registration failed", logging.Username(username), logging.Error(err))
		return &models.RegisterResponse{Success: false, Message: "Registration failed: " + err.Error()}
	}

	s.log.InfoContext(ctx, "new user registered", logging.Username(user.Username), slog.String("email", user.Email))
	return &models.RegisterResponse{
		Success:  true,
		Message:  "Registration successful! You can now login.",
		Username: user.Username,
		Email:    user.Email,
	}
}

// VerifyCredentials reports whether the username/password pair matches an
// active account. Blank inputs are an immediate non-match with no lookup;
// store failures count as non-match.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) bool {
	if strings.TrimSpace(username) == "" {
		s.log.WarnContext(ctx, "empty username in credential check")
		return false
	}
	if password == "" {
		s.log.WarnContext(ctx, "empty password in credential check", logging.Username(username))
		return false
	}

	user, err := s.repo.UserByUsernameAndActive(ctx, strings.TrimSpace(username), true)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "credential lookup error", logging.Username(username), logging.Error(err))
		} else {
			s.log.WarnContext(ctx, "user not found or inactive", logging.Username(username))
		}
		return false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WarnContext(ctx, "authentication failed", logging.Username(username))
		return false
	}

	s.log.InfoContext(ctx, "user authenticated", logging.Username(username))
	return true
}

// LoginErrorMessage derives the UX message for a failed login. The precedence
// is fixed and intentionally distinguishes unknown usernames from inactive
// accounts and bad passwords.
func (s *AuthService) LoginErrorMessage(ctx context.Context, username, password string) string {
	if strings.TrimSpace(username) == "" {
		return MsgUsernameRequired
	}
	if password == "" {
		return MsgPasswordRequired
	}

	user, err := s.repo.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return MsgNotRegistered
		}
		s.log.ErrorContext(ctx, "login message lookup error", logging.Username(username), logging.Error(err))
		return MsgIncorrectPassword
	}
	if !user.Active {
		return MsgAccountInactive
	}
	return MsgIncorrectPassword
}

// IssueToken creates a signed session token for an already-authenticated
// username. Nothing is persisted; the token is self-contained.
func (s *AuthService) IssueToken(username string) (string, error) {
	return s.codec.Issue(username)
}

// SubjectOf extracts the subject username from a syntactically valid token.
// It does not consult the blacklist or the user store; callers that need full
// validity use IsValid.
func (s *AuthService) SubjectOf(token string) (string, bool) {
	subject, err := s.codec.Subject(stripBearer(token))
	if err != nil {
		return "", false
	}
	return subject, true
}

// IsValid reports whether the token grants access: present, not revoked,
// cryptographically valid, unexpired, and bound to a still-active user. Every
// internal failure collapses to false; nothing propagates past this boundary.
func (s *AuthService) IsValid(ctx context.Context, token string) bool {
	token = stripBearer(token)
	if token == "" {
		return false
	}

	revoked, err := s.revoked.Contains(ctx, token)
	if err != nil {
		// Registry trouble must not lock every caller out.
		s.log.ErrorContext(ctx, "revocation check error", logging.Error(err))
	} else if revoked {
		s.log.WarnContext(ctx, "token is blacklisted")
		return false
	}

	subject, err := s.codec.Subject(token)
	if err != nil {
		return false
	}

	if _, err := s.repo.UserByUsernameAndActive(ctx, subject, true); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "token subject lookup error", logging.Username(subject), logging.Error(err))
		}
		return false
	}
	return true
}

// Revoke blacklists the token until its natural expiry, or for one hour when
// the expiry cannot be extracted. It is idempotent and best-effort: the
// caller always sees success, matching the client-side token discard posture.
func (s *AuthService) Revoke(ctx context.Context, token string) {
	token = stripBearer(token)
	if token == "" {
		return
	}

	expiry, err := s.codec.Expiry(token)
	if err != nil {
		expiry = time.Now().Add(fallbackRevocationTTL)
	}

	if err := s.revoked.Revoke(ctx, token, expiry); err != nil {
		s.log.ErrorContext(ctx, "failed to record revocation", logging.Error(err))
		return
	}
	s.log.InfoContext(ctx, "token revoked", slog.Time("revoked_until", expiry))
}

// UserByUsername returns the active user with the given username, if any.
func (s *AuthService) UserByUsername(ctx context.Context, username string) (*models.User, bool) {
	if username == "" {
		return nil, false
	}
	user, err := s.repo.UserByUsernameAndActive(ctx, username, true)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "user lookup error", logging.Username(username), logging.Error(err))
		}
		return nil, false
	}
	return user, true
}

// TotalUsers returns the user count, or zero on store failure.
func (s *AuthService) TotalUsers(ctx context.Context) int64 {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to count users", logging.Error(err))
		return 0
	}
	return count
}

// stripBearer removes a leading "Bearer " transport prefix so the core works
// whether or not the caller already stripped the Authorization header.
func stripBearer(token string) string {
	return strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
}
