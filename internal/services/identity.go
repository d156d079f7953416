package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// AdminRepository defines persistence operations for admins.
type AdminRepository interface {
	GetByID(ctx context.Context, id int) (types.Admin, error)
	GetByUsername(ctx context.Context, username string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByMobile(ctx context.Context, mobile string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// credential is a resolved principal together with its stored password hash.
type credential struct {
	principal    types.Principal
	passwordHash string
}

// IdentityResolver maps a username onto a principal across both credential tables.
//
// The admin table is consulted first, so an admin row shadows a user row with
// the same username.
type IdentityResolver struct {
	admins AdminRepository
	users  UserRepository
}

func NewIdentityResolver(admins AdminRepository, users UserRepository) *IdentityResolver {
	return &IdentityResolver{admins: admins, users: users}
}

// Resolve returns the principal owning username, or ErrNotFound.
func (r *IdentityResolver) Resolve(ctx context.Context, username string) (types.Principal, error) {
	cred, err := r.lookup(ctx, username)
	if err != nil {
		return types.Principal{}, err
	}
	return cred.principal, nil
}

func (r *IdentityResolver) lookup(ctx context.Context, username string) (credential, error) {
	admin, err := r.admins.GetByUsername(ctx, username)
	if err == nil {
		return credential{principal: admin.Principal(), passwordHash: admin.PasswordHash}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return credential{}, fmt.Errorf("lookup admin: %w", err)
	}

	user, err := r.users.GetByUsername(ctx, username)
	if err == nil {
		return credential{principal: user.Principal(), passwordHash: user.PasswordHash}, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return credential{}, ErrNotFound
	}
	return credential{}, fmt.Errorf("lookup user: %w", err)
}

// lookupPrincipal re-reads the stored hash for an already resolved principal.
func (r *IdentityResolver) lookupPrincipal(ctx context.Context, p types.Principal) (credential, error) {
	switch p.Source {
	case types.SourceAdmin:
		admin, err := r.admins.GetByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return credential{}, ErrNotFound
			}
			return credential{}, fmt.Errorf("lookup admin: %w", err)
		}
		return credential{principal: admin.Principal(), passwordHash: admin.PasswordHash}, nil
	case types.SourceUser:
		user, err := r.users.GetByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return credential{}, ErrNotFound
			}
			return credential{}, fmt.Errorf("lookup user: %w", err)
		}
		return credential{principal: user.Principal(), passwordHash: user.PasswordHash}, nil
	default:
		return credential{}, ErrNotFound
	}
}
