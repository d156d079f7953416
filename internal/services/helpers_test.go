package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/internal/tests/fakes"
	"github.com/shopscript/apiserver/types"
	"github.com/stretchr/testify/require"
)

type identityFixture struct {
	admins *fakes.AdminRepository
	users  *fakes.UserRepository
	tokens *auth.TokenSigner
	auth   *services.AuthService
}

func newIdentityFixture(t *testing.T) identityFixture {
	t.Helper()

	tokens, err := auth.NewTokenSigner("test-secret", time.Hour)
	require.NoError(t, err)

	admins := fakes.NewAdminRepository()
	users := fakes.NewUserRepository()
	return identityFixture{
		admins: admins,
		users:  users,
		tokens: tokens,
		auth:   services.NewAuthService(admins, users, fakes.PlainHasher{}, tokens),
	}
}

func (f identityFixture) seedAdmin(t *testing.T, username, password string) types.Admin {
	t.Helper()
	admin, err := f.auth.CreateAdmin(context.Background(), username, password)
	require.NoError(t, err)
	return admin
}

func (f identityFixture) seedUser(t *testing.T, input services.RegisterInput) types.User {
	t.Helper()
	user, _, err := f.auth.Register(context.Background(), input)
	require.NoError(t, err)
	return user
}

var adminActor = types.Principal{ID: 1, Username: "admin", Role: types.RoleAdmin, Source: types.SourceAdmin}

func shopper(id int) types.Principal {
	return types.Principal{ID: id, Username: "shopper", Role: types.RoleUser, Source: types.SourceUser}
}
