package middlewares_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/auth"
	"github.com/vistahr/stayhub/internal/domain/user"
	"github.com/vistahr/stayhub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	users map[int64]user.User
}

func (r fakeResolver) GetByID(_ context.Context, id int64) (user.User, error) {
	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func protectedRouter(jwt *auth.Manager, resolver middlewares.UserResolver, roles ...string) *gin.Engine {
	m := middlewares.NewAuthMiddleware(jwt, resolver)

	r := gin.New()

	chain := []gin.HandlerFunc{m.RequireAuth()}

	if len(roles) > 0 {
		chain = append(chain, m.RequireRole(roles...))
	}

	grp := r.Group("/", chain...)
	grp.GET("/whoami", func(c *gin.Context) {
		u, _ := middlewares.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})

	return r
}

func get(t *testing.T, r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)

	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireAuth(t *testing.T) {
	jwt := auth.NewManager("test-secret", time.Hour)
	resolver := fakeResolver{users: map[int64]user.User{
		7: {ID: 7, Email: "o@example.com", Role: user.RoleOwner, IsVerified: true},
	}}

	valid, err := jwt.Issue(7, user.RoleOwner)

	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired, err := auth.NewManager("test-secret", -time.Minute).Issue(7, user.RoleOwner)

	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}

	// token for a user that no longer exists
	stale, err := jwt.Issue(999, user.RoleOwner)

	if err != nil {
		t.Fatalf("issue stale: %v", err)
	}

	r := protectedRouter(jwt, resolver)

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantError string
	}{
		{name: "no_header", header: "", wantCode: http.StatusUnauthorized, wantError: "Missing or invalid Authorization header"},
		{name: "not_bearer", header: "Basic abc", wantCode: http.StatusUnauthorized, wantError: "Missing or invalid Authorization header"},
		{name: "bearer_without_token", header: "Bearer ", wantCode: http.StatusUnauthorized, wantError: "Missing or invalid Authorization header"},
		{name: "garbage_token", header: "Bearer not.a.jwt", wantCode: http.StatusUnauthorized, wantError: "Invalid token"},
		{name: "expired_token", header: "Bearer " + expired, wantCode: http.StatusUnauthorized, wantError: "Token expired"},
		{name: "stale_subject", header: "Bearer " + stale, wantCode: http.StatusUnauthorized, wantError: "User not found"},
		{name: "valid_token", header: "Bearer " + valid, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, r, tt.header)

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantError == "" {
				return
			}

			var resp map[string]any

			_ = json.Unmarshal(w.Body.Bytes(), &resp)

			if resp["error"] != tt.wantError {
				t.Fatalf("error = %v, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwt := auth.NewManager("test-secret", time.Hour)
	resolver := fakeResolver{users: map[int64]user.User{
		1: {ID: 1, Role: user.RoleOwner},
		2: {ID: 2, Role: user.RoleResident},
	}}

	ownerToken, _ := jwt.Issue(1, user.RoleOwner)
	residentToken, _ := jwt.Issue(2, user.RoleResident)

	r := protectedRouter(jwt, resolver, user.RoleOwner)

	if w := get(t, r, "Bearer "+ownerToken); w.Code != http.StatusOK {
		t.Fatalf("owner: code = %d (%s)", w.Code, w.Body.String())
	}

	w := get(t, r, "Bearer "+residentToken)

	if w.Code != http.StatusForbidden {
		t.Fatalf("resident: code = %d, want 403", w.Code)
	}

	var resp map[string]any

	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["error"] != "Forbidden" {
		t.Fatalf("error = %v", resp["error"])
	}
}
