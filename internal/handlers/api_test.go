package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/handlers"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/internal/tests/fakes"
	"github.com/shopscript/apiserver/types"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	handler   http.Handler
	tokens    *auth.TokenSigner
	auth      *services.AuthService
	products  *fakes.ProductRepository
	objects   *fakes.ObjectStore
	publisher *fakes.Publisher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	tokens, err := auth.NewTokenSigner("handler-test-secret", time.Hour)
	require.NoError(t, err)

	admins := fakes.NewAdminRepository()
	users := fakes.NewUserRepository()
	products := fakes.NewProductRepository()
	objects := fakes.NewObjectStore()
	publisher := &fakes.Publisher{}
	hasher := fakes.PlainHasher{}

	authService := services.NewAuthService(admins, users, hasher, tokens)
	svc := handlers.Services{
		Auth:     authService,
		Recovery: services.NewRecoveryService(users, hasher),
		Products: services.NewProductService(products),
		Orders:   services.NewOrderService(fakes.NewOrderRepository(), products, publisher),
		Reviews:  services.NewReviewService(fakes.NewReviewRepository(), products, publisher),
		Settings: services.NewSettingService(fakes.NewSettingRepository()),
		Uploads:  services.NewUploadService(objects, "http://shop.test", 1<<20),
	}

	router := chi.NewRouter()
	router.Get("/healthz", handlers.Healthz)
	handlers.Mount(router, svc, tokens)

	return &testAPI{
		handler:   router,
		tokens:    tokens,
		auth:      authService,
		products:  products,
		objects:   objects,
		publisher: publisher,
	}
}

// adminToken seeds the admin account and returns a bearer token for it.
func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	if _, err := a.auth.BootstrapAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatal(err)
	}
	_, session, err := a.auth.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	return "Bearer " + session.Token
}

// userToken registers a shopper and returns its id and bearer token.
func (a *testAPI) userToken(t *testing.T, username string) (int, string) {
	t.Helper()
	user, session, err := a.auth.Register(context.Background(), services.RegisterInput{
		Username:         username,
		Password:         "secret",
		SecurityQuestion: "Pet name?",
		SecurityAnswer:   "Rex",
	})
	require.NoError(t, err)
	return user.ID, "Bearer " + session.Token
}

func (a *testAPI) seedProduct(t *testing.T, name string, price float64) types.Product {
	t.Helper()
	p, err := a.products.Create(context.Background(), types.Product{Name: name, Category: "Fashion", Price: price, Stock: 3})
	require.NoError(t, err)
	return p
}
