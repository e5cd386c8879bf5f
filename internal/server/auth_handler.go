package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/jobmarket/internal/server/middleware"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

const maxRequestBody = 64 << 10

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

type validatable interface {
	Validate() error
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst validatable) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid request body"}
	}
	if err := dst.Validate(); err != nil {
		return extractValidationError(err)
	}
	return nil
}

// extractValidationError reports the first failing field.
func extractValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}

// fail writes err as a JSON error. Internal errors are logged and hidden.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal server error")
		return
	}
	var invalidToken *ErrInvalidToken
	if errors.As(err, &invalidToken) {
		h.logger.Info("provider token rejected",
			zap.String("provider", invalidToken.Provider),
			zap.Error(invalidToken.Cause),
		)
	}
	writeError(w, status, err.Error())
}

// respondWithToken issues a gateway token for user.
func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *types.User) {
	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to generate token: %w", err))
		return
	}
	writeJSON(w, status, types.AuthResponse{Identity: user.Identity(), Token: token})
}

// ProviderSignIn handles POST /api/auth/{provider}.
func (h *AuthHandler) ProviderSignIn(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if _, err := h.userService.Provider(provider); err != nil {
		h.fail(w, r, err)
		return
	}

	var req types.ProviderAuthRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.SignInWithProvider(r.Context(), provider, req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("signed in",
		zap.String("provider", provider),
		zap.String("user_id", user.ID.String()),
	)
	h.respondWithToken(w, r, http.StatusOK, user)
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.IdentityResponse{Identity: user.Identity()})
}

// SelectRole handles PUT /api/me/role.
func (h *AuthHandler) SelectRole(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req types.SelectRoleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.SelectRole(r.Context(), userID, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.IdentityResponse{Identity: user.Identity()})
}
