package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/comanda-pos/api/internal/auth"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/handler"
)

type mockAuthStore struct {
	users map[uuid.UUID]database.User
}

func newMockAuthStore(users ...database.User) *mockAuthStore {
	m := &mockAuthStore{users: make(map[uuid.UUID]database.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testUser(t *testing.T, email, password string) database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:             uuid.New(),
		CompanyID:      uuid.New(),
		FullName:       "Siti Aminah",
		Email:          email,
		HashedPassword: string(hash),
		Role:           enum.UserRoleWaiter,
		IsActive:       true,
	}
}

func TestLogin(t *testing.T) {
	user := testUser(t, "siti@example.com", "password123")
	router := setupAuthRouter(newMockAuthStore(user))

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "siti@example.com",
		"password": "password123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Email != "siti@example.com" || resp.User.Role != "waiter" {
		t.Errorf("user = %+v", resp.User)
	}

	// The access token must round-trip through validation.
	claims, err := auth.ValidateToken(testJWTSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != user.ID || claims.CompanyID != user.CompanyID {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "siti@example.com", "password123")
	router := setupAuthRouter(newMockAuthStore(user))

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "siti@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{"email": "siti@example.com"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	user := testUser(t, "siti@example.com", "password123")
	router := setupAuthRouter(newMockAuthStore(user))

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == nil || resp["refresh_token"] == nil {
		t.Errorf("tokens missing: %v", resp)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": "not-a-token",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRefreshUnknownUser(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
