package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/auth"
	"github.com/vistahr/stayhub/internal/domain/user"
	"github.com/vistahr/stayhub/internal/http/handlers"
	"github.com/vistahr/stayhub/internal/security"
)

type fakeUserStore struct {
	nextID int64
	users  map[string]*user.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[string]*user.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, email, passwordHash, role string, isVerified bool) (user.User, error) {
	if _, taken := s.users[email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	u := &user.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsVerified:   isVerified,
	}

	s.nextID++
	s.users[email] = u

	return *u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := s.users[email]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return *u, nil
}

func (s *fakeUserStore) GetByEmailAndRole(_ context.Context, email, role string) (user.User, error) {
	u, ok := s.users[email]

	if !ok || u.Role != role {
		return user.User{}, user.ErrNotFound
	}

	return *u, nil
}

func authRouter(store handlers.UserStore) *gin.Engine {
	jwt := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(store, jwt)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	return r
}

func seedUser(t *testing.T, store *fakeUserStore, email, password, role string, verified bool) {
	t.Helper()

	hash, err := security.HashPassword(password)

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	_, err = store.Create(context.Background(), email, hash, role, verified)

	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantCode     int
		wantVerified bool
		wantField    string
	}{
		{
			name:         "resident_is_verified_immediately",
			body:         `{"email":"res@example.com","password":"secret12","role":"RESIDENT"}`,
			wantCode:     http.StatusCreated,
			wantVerified: true,
		},
		{
			name:     "owner_starts_unverified",
			body:     `{"email":"own@example.com","password":"secret12","role":"OWNER"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:      "bad_email",
			body:      `{"email":"not-an-email","password":"secret12","role":"OWNER"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "email",
		},
		{
			name:      "unknown_role",
			body:      `{"email":"x@example.com","password":"secret12","role":"ADMIN"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "role",
		},
		{
			name:      "missing_password",
			body:      `{"email":"x@example.com","role":"OWNER"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "password",
		},
		{
			name:      "empty_body",
			body:      "",
			wantCode:  http.StatusBadRequest,
			wantField: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeUserStore()
			r := authRouter(store)

			w := doJSON(t, r, http.MethodPost, "/api/auth/register", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantField != "" {
				var resp struct {
					Fields map[string]string `json:"fields"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}

				if resp.Fields[tt.wantField] == "" {
					t.Fatalf("missing field error %q: %s", tt.wantField, w.Body.String())
				}
				return
			}

			var resp struct {
				User        user.User `json:"user"`
				AccessToken string    `json:"access_token"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if resp.User.IsVerified != tt.wantVerified {
				t.Errorf("is_verified = %v, want %v", resp.User.IsVerified, tt.wantVerified)
			}

			if resp.AccessToken == "" {
				t.Errorf("missing access token")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	r := authRouter(store)

	body := `{"email":"dup@example.com","password":"secret12","role":"RESIDENT"}`

	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", body); w.Code != http.StatusCreated {
		t.Fatalf("first register: %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("second register: code = %d, want 409", w.Code)
	}

	var resp map[string]any

	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["error"] != "Email already registered" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newFakeUserStore()
	r := authRouter(store)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"email":"  MiXeD@Example.COM ","password":"secret12","role":"RESIDENT"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d (%s)", w.Code, w.Body.String())
	}

	if _, ok := store.users["mixed@example.com"]; !ok {
		t.Fatalf("email not lowercased: %v", store.users)
	}
}

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "res@example.com", "secret12", user.RoleResident, true)
	seedUser(t, store, "own@example.com", "secret12", user.RoleOwner, false)
	seedUser(t, store, "vown@example.com", "secret12", user.RoleOwner, true)

	r := authRouter(store)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{
			name:     "resident_logs_in",
			body:     `{"email":"res@example.com","password":"secret12"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "role_matching_row",
			body:     `{"email":"res@example.com","password":"secret12","role":"RESIDENT"}`,
			wantCode: http.StatusOK,
		},
		{
			name:      "role_mismatch_looks_like_bad_credentials",
			body:      `{"email":"res@example.com","password":"secret12","role":"OWNER"}`,
			wantCode:  http.StatusUnauthorized,
			wantError: "Invalid credentials",
		},
		{
			name:      "wrong_password",
			body:      `{"email":"res@example.com","password":"nope"}`,
			wantCode:  http.StatusUnauthorized,
			wantError: "Invalid credentials",
		},
		{
			name:      "unknown_email",
			body:      `{"email":"ghost@example.com","password":"secret12"}`,
			wantCode:  http.StatusUnauthorized,
			wantError: "Invalid credentials",
		},
		{
			name:      "unverified_owner_is_blocked",
			body:      `{"email":"own@example.com","password":"secret12"}`,
			wantCode:  http.StatusForbidden,
			wantError: "Owner account not yet verified",
		},
		{
			name:     "verified_owner_logs_in",
			body:     `{"email":"vown@example.com","password":"secret12"}`,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/login", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantError != "" {
				var resp map[string]any

				_ = json.Unmarshal(w.Body.Bytes(), &resp)

				if resp["error"] != tt.wantError {
					t.Fatalf("error = %v, want %q", resp["error"], tt.wantError)
				}
				return
			}

			var resp struct {
				AccessToken string `json:"access_token"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if resp.AccessToken == "" {
				t.Errorf("missing access token")
			}
		})
	}
}

func TestResponseNeverLeaksPasswordHash(t *testing.T) {
	store := newFakeUserStore()
	r := authRouter(store)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"email":"leak@example.com","password":"secret12","role":"RESIDENT"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d", w.Code)
	}

	var resp struct {
		User map[string]any `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, key := range []string{"password", "password_hash", "passwordHash"} {
		if _, leaked := resp.User[key]; leaked {
			t.Errorf("response contains %q", key)
		}
	}
}
