package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopscript/apiserver/types"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	apitest.New().
		Handler(api.handler).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		JSON(`{"username":"alice","password":"pw1","mobile":"555"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.username", "alice")).
		Assert(jsonpath.Equal("$.role", "USER")).
		Assert(jsonpath.Present("$.expiresAt")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		JSON(`{"username":"alice","password":"pw2"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal("$.error", "username already exists")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/login").
		JSON(`{"username":"alice","password":"pw1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.username", "alice")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/login").
		JSON(`{"username":"alice","password":"pw2"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "invalid credentials")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/login").
		JSON(`{"username":"ghost","password":"pw1"}`).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		JSON(`{"username":"alice"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "password is required")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		Body(`not json`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "invalid request")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		JSON(`{"username":"alice","password":"pw","mobile":"+91 98765 43210 ext 55"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "mobile must be at most 20 characters")).
		End()
}

func TestAdminLoginUsesAdminTable(t *testing.T) {
	api := newTestAPI(t)
	token := api.adminToken(t)

	apitest.New().
		Handler(api.handler).
		Get("/api/users/me").
		Header("Authorization", token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.role", "ADMIN")).
		Assert(jsonpath.Equal("$.source", "admin")).
		End()
}

func TestSessionErrors(t *testing.T) {
	api := newTestAPI(t)

	apitest.New().
		Handler(api.handler).
		Get("/api/users/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "unauthorized")).
		End()

	apitest.New().
		Handler(api.handler).
		Get("/api/users/me").
		Header("Authorization", "Bearer not-a-token").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "unauthorized")).
		End()

	stale := api.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	session, err := stale.Issue(types.Principal{ID: 1, Username: "alice", Role: types.RoleUser, Source: types.SourceUser})
	require.NoError(t, err)

	apitest.New().
		Handler(api.handler).
		Get("/api/users/me").
		Header("Authorization", "Bearer "+session.Token).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "session expired")).
		End()
}

func TestAdminUserManagement(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.adminToken(t)
	_, userToken := api.userToken(t, "bob")

	apitest.New().
		Handler(api.handler).
		Get("/api/users").
		Header("Authorization", userToken).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/create").
		Header("Authorization", adminToken).
		JSON(`{"username":"staff","password":"pw","role":"ADMIN"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.role", "ADMIN")).
		Assert(jsonpath.NotPresent("$.passwordHash")).
		End()

	apitest.New().
		Handler(api.handler).
		Get("/api/users").
		Header("Authorization", adminToken).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len("$", 2)).
		End()
}

func TestChangePassword(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.userToken(t, "carol")

	apitest.New().
		Handler(api.handler).
		Put("/api/users/me/password").
		Header("Authorization", token).
		JSON(`{"currentPassword":"wrong","newPassword":"next"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().
		Handler(api.handler).
		Put("/api/users/me/password").
		Header("Authorization", token).
		JSON(`{"currentPassword":"secret","newPassword":"next"}`).
		Expect(t).
		Status(http.StatusNoContent).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/login").
		JSON(`{"username":"carol","password":"next"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestPasswordRecovery(t *testing.T) {
	api := newTestAPI(t)
	api.userToken(t, "dave")

	apitest.New().
		Handler(api.handler).
		Post("/api/users/forgot-password/get-question").
		JSON(`{"username":"dave"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.question", "Pet name?")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/forgot-password/get-question").
		JSON(`{"username":"nobody"}`).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.error", "user not found")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/forgot-password/reset-with-answer").
		JSON(`{"username":"dave","answer":"Cat","newPassword":"fresh"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "incorrect security answer")).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/forgot-password/reset-with-answer").
		JSON(`{"username":"dave","answer":" rex ","newPassword":"fresh"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/login").
		JSON(`{"username":"dave","password":"fresh"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestRecoveryWithoutQuestion(t *testing.T) {
	api := newTestAPI(t)

	apitest.New().
		Handler(api.handler).
		Post("/api/users/register").
		JSON(`{"username":"erin","password":"pw"}`).
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.New().
		Handler(api.handler).
		Post("/api/users/forgot-password/get-question").
		JSON(`{"username":"erin"}`).
		Expect(t).
		Status(http.StatusUnprocessableEntity).
		Assert(jsonpath.Equal("$.error", "no security question configured")).
		End()
}
