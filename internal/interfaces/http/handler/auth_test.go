package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appidentity "github.com/ShanyuJung/GoalKit-sub000/internal/application/identity"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/identity"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/auth"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/config"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/dto"
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUserRepo is an in-memory user repository for handler tests
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *fakeUserRepo) {
	t.Helper()

	repo := newFakeUserRepo()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-of-decent-length",
		RefreshSecret:          "refresh-secret-key-of-decent-length",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "goalkit-test",
		MaxRefreshCount:        10,
	})
	authService := appidentity.NewAuthService(repo, jwtService, zap.NewNop())
	h := NewAuthHandler(authService, config.CookieConfig{Path: "/", SameSite: "lax"})

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.RefreshToken)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("")
	authed.Use(middleware.JWTAuthMiddleware(jwtService))
	authed.GET("/auth/me", h.GetCurrentUser)
	authed.PUT("/auth/profile", h.UpdateProfile)
	authed.PUT("/auth/password", h.ChangePassword)

	return router, repo
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAccount(t *testing.T, router *gin.Engine, email string) LoginResponse {
	t.Helper()
	w := postJSON(t, router, "/api/v1/auth/register", RegisterRequest{
		Email:       email,
		DisplayName: "Alice",
		Password:    "sup3rsecret",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestAuthRegister(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	session := registerAccount(t, router, "alice@example.com")
	assert.NotEmpty(t, session.Token.AccessToken)
	assert.NotEmpty(t, session.Token.RefreshToken)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, "Alice", session.User.DisplayName)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	registerAccount(t, router, "alice@example.com")

	w := postJSON(t, router, "/api/v1/auth/register", RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Imposter",
		Password:    "sup3rsecret",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
}

func TestAuthLogin(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	registerAccount(t, router, "alice@example.com")

	w := postJSON(t, router, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3rsecret",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Refresh token also lands in a cookie for browser clients
	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == refreshCookieName && cookie.Value != "" {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "expected refresh token cookie")
}

func TestAuthLoginWrongPassword(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	registerAccount(t, router, "alice@example.com")

	w := postJSON(t, router, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestAuthRefreshToken(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	session := registerAccount(t, router, "alice@example.com")

	w := postJSON(t, router, "/api/v1/auth/refresh", RefreshTokenRequest{
		RefreshToken: session.Token.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data RefreshTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token.AccessToken)
	assert.NotEqual(t, session.Token.RefreshToken, resp.Data.Token.RefreshToken)
}

func TestAuthRefreshTokenInvalid(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/refresh", RefreshTokenRequest{
		RefreshToken: "not-a-token",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRefreshTokenMissing(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/refresh", RefreshTokenRequest{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthGetCurrentUser(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	session := registerAccount(t, router, "alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data CurrentUserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, session.User.ID, resp.Data.User.ID)
	assert.Equal(t, "alice@example.com", resp.Data.User.Email)
}

func TestAuthUpdateProfile(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	session := registerAccount(t, router, "alice@example.com")

	payload, _ := json.Marshal(UpdateProfileRequest{
		DisplayName: "Alice Cooper",
		PhotoURL:    "https://example.com/alice.png",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/profile", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data CurrentUserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Cooper", resp.Data.User.DisplayName)
}

func TestAuthChangePassword(t *testing.T) {
	router, _ := newAuthTestRouter(t)
	session := registerAccount(t, router, "alice@example.com")

	payload, _ := json.Marshal(ChangePasswordRequest{
		OldPassword: "sup3rsecret",
		NewPassword: "ev3nm0resecret",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/password", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// Old password no longer works
	w2 := postJSON(t, router, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "sup3rsecret",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)

	// New one does
	w3 := postJSON(t, router, "/api/v1/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "ev3nm0resecret",
	}, nil)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestAuthMeRequiresToken(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
