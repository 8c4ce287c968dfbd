package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-api/internal/logging"
)

func newTestRouter(t *testing.T) (*chi.Mux, *serviceFixture) {
	t.Helper()

	f := newServiceFixture(t)
	handler := NewHandler(f.service, logging.NewLogger(true), false, 24*time.Hour)

	tokenService, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	mw := NewMiddleware(tokenService)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Get("/logout", handler.Logout)
		r.Get("/loggedin", handler.LoginStatus)
		r.Post("/forgotpassword", handler.ForgotPassword)
		r.Put("/resetpassword/{resetToken}", handler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/getuser", handler.GetProfile)
			r.Patch("/updateuser", handler.UpdateProfile)
			r.Patch("/changepassword", handler.ChangePassword)
		})
	})

	return r, f
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func registerAlice(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/users/register", RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return sessionCookie(t, rec)
}

func TestHandler_Register(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/users/register", RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alice", resp.Name)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.NotEmpty(t, resp.Token)

	// Session cookie is scoped for cross-site browser use.
	c := sessionCookie(t, rec)
	assert.Equal(t, resp.Token, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.True(t, c.Expires.After(time.Now()))

	// Password material never leaks into the response body.
	assert.NotContains(t, rec.Body.String(), "secret123")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAlice(t, r)

	rec := doJSON(t, r, http.MethodPost, "/users/register", RegisterRequest{
		Name:     "Other Alice",
		Email:    "alice@example.com",
		Password: "secret456",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email has already been registered")
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAlice(t, r)

	rec := doJSON(t, r, http.MethodPost, "/users/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestHandler_Login_UnknownUser(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/users/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found, please sign up")
}

func TestHandler_Logout_ClearsCookie(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/users/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Successfully Logged Out")

	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.True(t, c.Expires.Before(time.Now()))
}

func TestHandler_LoginStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/users/loggedin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "false", rec.Body.String())

	cookie := registerAlice(t, r)
	rec = doJSON(t, r, http.MethodGet, "/users/loggedin", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "true", rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/users/loggedin", nil,
		&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "false", rec.Body.String())
}

func TestHandler_GetProfile(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := registerAlice(t, r)

	rec := doJSON(t, r, http.MethodGet, "/users/getuser", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Email)
}

func TestHandler_GetProfile_Unauthorized(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/users/getuser", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized, please login")
}

func TestHandler_GetProfile_BearerHeader(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := registerAlice(t, r)

	req := httptest.NewRequest(http.MethodGet, "/users/getuser", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ChangePassword_WrongOldPassword(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := registerAlice(t, r)

	rec := doJSON(t, r, http.MethodPatch, "/users/changepassword", ChangePasswordRequest{
		OldPassword: "notthesecret",
		Password:    "newsecret",
	}, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Old password is incorrect")
}

func TestHandler_ChangePassword(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := registerAlice(t, r)

	rec := doJSON(t, r, http.MethodPatch, "/users/changepassword", ChangePasswordRequest{
		OldPassword: "secret123",
		Password:    "newsecret",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/users/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "newsecret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotPassword_UnknownUser(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/users/forgotpassword", ForgotPasswordRequest{
		Email: "nobody@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User does not exist")
}

func TestHandler_ResetPassword_InvalidToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/users/resetpassword/never-issued", ResetPasswordRequest{
		Password: "newsecret",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid or expired token", resp.Message)
}

func TestHandler_ResetPassword_FullFlow(t *testing.T) {
	r, f := newTestRouter(t)
	registerAlice(t, r)

	rec := doJSON(t, r, http.MethodPost, "/users/forgotpassword", ForgotPasswordRequest{
		Email: "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reset Email Sent")

	require.Len(t, f.email.sent, 1)
	raw := f.email.sent[0].resetURL[len("https://app.example.com/resetpassword/"):]

	rec = doJSON(t, r, http.MethodPut, "/users/resetpassword/"+raw, ResetPasswordRequest{
		Password: "newsecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password Reset Successful, Please Login")

	rec = doJSON(t, r, http.MethodPost, "/users/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "newsecret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_DevModeAttachesErrorChain(t *testing.T) {
	f := newServiceFixture(t)
	handler := NewHandler(f.service, logging.NewLogger(true), true, 24*time.Hour)

	r := chi.NewRouter()
	r.Post("/users/login", handler.Login)

	rec := doJSON(t, r, http.MethodPost, "/users/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Stack)
}

// Middleware passes the user id through the request context untouched.
func TestGetUserIDFromContext(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}
