package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/metrics"
	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

const maxMobileLength = 20

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// TokenIssuer mints session tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p types.Principal) (auth.Session, error)
}

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	Username         string
	Password         string
	Mobile           string
	SecurityQuestion string
	SecurityAnswer   string
}

// AuthService covers login, registration and credential changes.
type AuthService struct {
	resolver *IdentityResolver
	admins   AdminRepository
	users    UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
}

func NewAuthService(admins AdminRepository, users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		resolver: NewIdentityResolver(admins, users),
		admins:   admins,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Resolver exposes the identity resolver used for logins.
func (s *AuthService) Resolver() *IdentityResolver {
	return s.resolver
}

// Authenticate verifies username and password and issues a session.
// An unknown username yields ErrNotFound, a wrong password ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (types.Principal, auth.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.Principal{}, auth.Session{}, ErrMissingFields
	}

	cred, err := s.resolver.lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return types.Principal{}, auth.Session{}, err
	}

	ok, err := s.hasher.Verify(password, cred.passwordHash)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return types.Principal{}, auth.Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		zerolog.Ctx(ctx).Info().Str("username", username).Msg("login rejected: invalid credentials")
		return types.Principal{}, auth.Session{}, ErrInvalidCredentials
	}

	session, err := s.tokens.Issue(cred.principal)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return types.Principal{}, auth.Session{}, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	zerolog.Ctx(ctx).Info().
		Int("principal_id", cred.principal.ID).
		Str("role", string(cred.principal.Role)).
		Str("source", string(cred.principal.Source)).
		Msg("login succeeded")
	return cred.principal, session, nil
}

// Register creates a USER account and logs it in.
// Uniqueness is checked against the user table only.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (types.User, auth.Session, error) {
	user, err := s.createUser(ctx, input, types.RoleUser)
	if err != nil {
		return types.User{}, auth.Session{}, err
	}

	session, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return types.User{}, auth.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return user, session, nil
}

// CreateUser is the admin path for account creation; the role may be ADMIN.
// An empty role defaults to USER.
func (s *AuthService) CreateUser(ctx context.Context, actor types.Principal, input RegisterInput, role string) (types.User, error) {
	if !actor.IsAdmin() {
		return types.User{}, ErrForbidden
	}

	resolved := types.RoleUser
	if strings.TrimSpace(role) != "" {
		parsed, ok := types.ParseRole(role)
		if !ok {
			return types.User{}, ErrInvalidRole
		}
		resolved = parsed
	}

	user, err := s.createUser(ctx, input, resolved)
	if err != nil {
		return types.User{}, err
	}
	zerolog.Ctx(ctx).Info().
		Int("actor_id", actor.ID).
		Int("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user created by admin")
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput, role types.Role) (types.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return types.User{}, ErrMissingFields
	}
	mobile := strings.TrimSpace(input.Mobile)
	if utf8.RuneCountInString(mobile) > maxMobileLength {
		return types.User{}, fmt.Errorf("%w: mobile must be at most %d characters", ErrInvalidInput, maxMobileLength)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check user: %w", err)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Username:         username,
		Mobile:           mobile,
		SecurityQuestion: strings.TrimSpace(input.SecurityQuestion),
		SecurityAnswer:   strings.TrimSpace(input.SecurityAnswer),
		Role:             role,
		PasswordHash:     hashed,
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrUsernameTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(string(role)).Inc()
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, p types.Principal, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingFields
	}

	cred, err := s.resolver.lookupPrincipal(ctx, p)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(current, cred.passwordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	switch p.Source {
	case types.SourceAdmin:
		err = s.admins.UpdatePassword(ctx, p.ID, hashed)
	default:
		err = s.users.UpdatePassword(ctx, p.ID, hashed)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ListUsers returns every user-table account.
func (s *AuthService) ListUsers(ctx context.Context, actor types.Principal) ([]types.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

// CreateAdmin inserts an admin-table account.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (types.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.Admin{}, ErrMissingFields
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin, err := s.admins.Create(ctx, types.Admin{Username: username, PasswordHash: hashed})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Admin{}, ErrUsernameTaken
		}
		return types.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// BootstrapAdmin seeds the admin account when it is absent. It reports whether
// an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	if _, err := s.CreateAdmin(ctx, username, password); err != nil {
		// Another instance seeded it first.
		if errors.Is(err, ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
