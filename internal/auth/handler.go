package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inventory-api/internal/httputil"
	"inventory-api/internal/logging"
	"inventory-api/internal/user"
)

// Handler contains HTTP handlers for the account and credential endpoints.
type Handler struct {
	service       *Service
	logger        *logging.Logger
	isDevelopment bool
	sessionTTL    time.Duration
}

func NewHandler(service *Service, logger *logging.Logger, isDevelopment bool, sessionTTL time.Duration) *Handler {
	return &Handler{
		service:       service,
		logger:        logger,
		isDevelopment: isDevelopment,
		sessionTTL:    sessionTTL,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a partial profile update. Absent fields
// keep their stored values.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Photo *string `json:"photo"`
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
}

// ChangePasswordRequest represents the change password request body.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the new password; the reset token itself
// travels in the URL path.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ProfileResponse represents the non-secret user fields in API responses.
type ProfileResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Photo string    `json:"photo"`
	Phone string    `json:"phone"`
	Bio   string    `json:"bio"`
}

// SessionResponse is the profile plus a freshly issued session token.
type SessionResponse struct {
	ProfileResponse
	Token string `json:"token"`
}

func newProfileResponse(u *user.User) ProfileResponse {
	return ProfileResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Phone: u.Phone,
		Bio:   u.Bio,
	}
}

// Register handles POST /users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newUser, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			h.respondFailure(w, logger, "Please fill in all required fields", err, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			h.respondFailure(w, logger, "Password must be at least 6 characters", err, http.StatusBadRequest)
		case errors.Is(err, ErrEmailTaken):
			h.respondFailure(w, logger, "Email has already been registered", err, http.StatusBadRequest)
		default:
			logger.Error("registration failed", "error", err.Error())
			h.respondFailure(w, logger, "Failed to register user", err, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	SetSessionCookie(w, token, h.sessionTTL)
	httputil.RespondJSON(w, SessionResponse{
		ProfileResponse: newProfileResponse(newUser),
		Token:           token,
	}, http.StatusCreated)
}

// Login handles POST /users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	existing, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			h.respondFailure(w, logger, "Please add email and password", err, http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			h.respondFailure(w, logger, "User not found, please sign up", err, http.StatusNotFound)
		case errors.Is(err, ErrInvalidCredentials):
			h.respondFailure(w, logger, "Invalid email or password", err, http.StatusBadRequest)
		default:
			logger.Error("login failed", "error", err.Error())
			h.respondFailure(w, logger, "Failed to login", err, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", existing.ID)

	SetSessionCookie(w, token, h.sessionTTL)
	httputil.RespondJSON(w, SessionResponse{
		ProfileResponse: newProfileResponse(existing),
		Token:           token,
	}, http.StatusOK)
}

// Logout handles GET /users/logout. It only expires the cookie; the token
// itself remains valid until its TTL elapses.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	httputil.RespondJSON(w, map[string]string{"message": "Successfully Logged Out"}, http.StatusOK)
}

// GetProfile handles GET /users/getuser.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respondFailure(w, logger, "User not found", err, http.StatusNotFound)
			return
		}
		logger.Error("failed to get profile", "error", err.Error())
		h.respondFailure(w, logger, "Failed to get user", err, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, newProfileResponse(u), http.StatusOK)
}

// LoginStatus handles GET /users/loggedin. Responds with a bare boolean and
// never fails: an absent or invalid token is simply false.
func (h *Handler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	token, err := GetSessionTokenFromCookie(r)
	if err != nil {
		httputil.RespondJSON(w, false, http.StatusOK)
		return
	}
	httputil.RespondJSON(w, h.service.LoginStatus(token), http.StatusOK)
}

// UpdateProfile handles PATCH /users/updateuser.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update profile request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, user.ProfileUpdate{
		Name:  req.Name,
		Photo: req.Photo,
		Phone: req.Phone,
		Bio:   req.Bio,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.respondFailure(w, logger, "User not found", err, http.StatusNotFound)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		h.respondFailure(w, logger, "Failed to update user", err, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, newProfileResponse(updated), http.StatusOK)
}

// ChangePassword handles PATCH /users/changepassword.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Not authorized, please login", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingPasswords):
			h.respondFailure(w, logger, "Please add old and new password", err, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			h.respondFailure(w, logger, "Password must be at least 6 characters", err, http.StatusBadRequest)
		case errors.Is(err, ErrOldPasswordIncorrect):
			h.respondFailure(w, logger, "Old password is incorrect", err, http.StatusUnauthorized)
		case errors.Is(err, ErrUserNotFound):
			h.respondFailure(w, logger, "User not found, please sign up", err, http.StatusNotFound)
		default:
			logger.Error("failed to change password", "error", err.Error())
			h.respondFailure(w, logger, "Failed to change password", err, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password changed", "user_id", userID)
	httputil.RespondJSON(w, map[string]string{"message": "Password change successful"}, http.StatusOK)
}

// ForgotPassword handles POST /users/forgotpassword. The email send is
// awaited; a delivery failure is a server error, not a silent success.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			h.respondFailure(w, logger, "User does not exist", err, http.StatusNotFound)
		case errors.Is(err, ErrInvalidRecipient):
			h.respondFailure(w, logger, "Invalid recipient email address", err, http.StatusBadRequest)
		case errors.Is(err, ErrEmailNotSent):
			h.respondFailure(w, logger, "Email not sent, please try again", err, http.StatusInternalServerError)
		default:
			logger.Error("forgot password failed", "error", err.Error())
			h.respondFailure(w, logger, "Failed to process request", err, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, map[string]any{
		"success": true,
		"message": "Reset Email Sent",
	}, http.StatusOK)
}

// ResetPassword handles PUT /users/resetpassword/{resetToken}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	rawToken := chi.URLParam(r, "resetToken")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), rawToken, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			h.respondFailure(w, logger, "Please fill in all required fields", err, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			h.respondFailure(w, logger, "Password must be at least 6 characters", err, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetToken):
			h.respondFailure(w, logger, "Invalid or expired token", err, http.StatusNotFound)
		default:
			logger.Error("password reset failed", "error", err.Error())
			h.respondFailure(w, logger, "Failed to reset password", err, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, map[string]string{
		"message": "Password Reset Successful, Please Login",
	}, http.StatusOK)
}

// respondFailure sends an error response, attaching the underlying error
// chain only in development mode.
func (h *Handler) respondFailure(w http.ResponseWriter, logger *logging.Logger, message string, err error, statusCode int) {
	if statusCode < http.StatusInternalServerError {
		logger.Warn(message, "error", err.Error())
	}
	if h.isDevelopment && err != nil {
		httputil.RespondErrorWithStack(w, message, err.Error(), statusCode)
		return
	}
	httputil.RespondError(w, message, statusCode)
}
