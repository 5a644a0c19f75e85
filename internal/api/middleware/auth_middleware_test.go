package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cvhub/internal/auth"
	"cvhub/internal/role"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	svc, err := auth.NewAuthService(privPEM, pubPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func newGuardedRouter(svc *auth.AuthService, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", AuthMiddleware(svc))
	if len(allowed) > 0 {
		group.Use(RequireRoles(allowed...))
	}
	group.GET("/probe", func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		email, _ := EmailFromContext(c)
		roles, _ := RolesFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": email, "roles": roles})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	svc := newTestAuthService(t)
	router := newGuardedRouter(svc)

	pair, err := svc.GenerateTokenPair(5, "ada@example.com", []string{role.Candidate})
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid access token", "Bearer " + pair.AccessToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		// Refresh tokens are not accepted on API routes.
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	svc := newTestAuthService(t)
	router := newGuardedRouter(svc, role.RecruiterOnly...)

	recruiter, _ := svc.GenerateTokenPair(1, "r@example.com", []string{role.Recruiter})
	candidate, _ := svc.GenerateTokenPair(2, "c@example.com", []string{role.Candidate})
	admin, _ := svc.GenerateTokenPair(3, "a@example.com", []string{role.Admin})

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"recruiter allowed", recruiter.AccessToken, http.StatusOK},
		{"admin allowed", admin.AccessToken, http.StatusOK},
		{"candidate forbidden", candidate.AccessToken, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
