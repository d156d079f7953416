package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/types"
)

// UserHandler provides account, session and password recovery endpoints.
type UserHandler struct {
	authService     *services.AuthService
	recoveryService *services.RecoveryService
}

// NewUserHandler constructs a UserHandler with the provided services.
func NewUserHandler(authService *services.AuthService, recoveryService *services.RecoveryService) *UserHandler {
	return &UserHandler{
		authService:     authService,
		recoveryService: recoveryService,
	}
}

// UserRouter registers account routes on the given router.
func UserRouter(
	r chi.Router,
	authService *services.AuthService,
	recoveryService *services.RecoveryService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(authService, recoveryService)
	adminOnly := RequireRole(types.RoleAdmin)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/forgot-password/get-question", handler.GetSecurityQuestion)
	r.Post("/forgot-password/reset-with-answer", handler.ResetWithAnswer)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", handler.Me)
		r.Put("/me/password", handler.ChangePassword)
		r.With(adminOnly).Post("/create", handler.CreateUser)
		r.With(adminOnly).Get("/", handler.ListUsers)
	})
}

// Register creates a USER account and returns a session for it.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, session, err := h.authService.Register(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(user.Principal(), session))
}

// Login verifies credentials against both account tables and returns a session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, session, err := h.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(principal, session))
}

// Me returns the principal carried by the session token.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.ChangePassword(r.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.CreateUser(r.Context(), principal, req.RegisterRequest.input(), req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.authService.ListUsers(r.Context(), principal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetSecurityQuestion(w http.ResponseWriter, r *http.Request) {
	var req SecurityQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := h.recoveryService.RequestQuestion(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SecurityQuestionResponse{Question: question})
}

func (h *UserHandler) ResetWithAnswer(w http.ResponseWriter, r *http.Request) {
	var req ResetWithAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.recoveryService.AnswerAndReset(r.Context(), req.Username, req.Answer, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password reset successfully"})
}

type RegisterRequest struct {
	Username         string `json:"username" validate:"required"`
	Password         string `json:"password" validate:"required"`
	Mobile           string `json:"mobile" validate:"max=20"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
}

func (req RegisterRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Username:         req.Username,
		Password:         req.Password,
		Mobile:           req.Mobile,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	}
}

type CreateUserRequest struct {
	RegisterRequest
	Role string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type SecurityQuestionRequest struct {
	Username string `json:"username" validate:"required"`
}

type SecurityQuestionResponse struct {
	Question string `json:"question"`
}

type ResetWithAnswerRequest struct {
	Username    string `json:"username" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token     string     `json:"token"`
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Role      types.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

func newAuthResponse(p types.Principal, session auth.Session) AuthResponse {
	return AuthResponse{
		Token:     session.Token,
		ID:        p.ID,
		Username:  p.Username,
		Role:      p.Role,
		ExpiresAt: session.ExpiresAt,
	}
}
