package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finstats/internal/config"
	"finstats/internal/models"
	"finstats/internal/services"
	"finstats/internal/services/service_mocks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthMiddleware(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

type AuthMiddlewareSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockVerifier *service_mocks.MockTokenVerifierInterface
	e            *echo.Echo
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockVerifier = service_mocks.NewMockTokenVerifierInterface(s.ctrl)
	s.e = echo.New()
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthMiddlewareSuite) request(verifier services.TokenVerifierInterface, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	if next == nil {
		next = func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	handler := RequireAuth(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()

	// RequireAuth writes its own error responses
	s.NoError(handler(s.e.NewContext(req, rec)))
	return rec
}

func (s *AuthMiddlewareSuite) TestRequireAuth_ValidToken() {
	s.mockVerifier.EXPECT().ExtractTokenFromHeader("Bearer good").Return("good", nil)
	s.mockVerifier.EXPECT().ValidateAccessToken("good").Return(&models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
		UserID:           "user-42",
		Role:             "customer",
	}, nil)

	rec := s.request(s.mockVerifier, "Bearer good", func(c echo.Context) error {
		s.Equal("user-42", c.Get("user_id"))
		s.Equal("customer", c.Get("user_role"))
		s.Equal("jti-1", c.Get("token_jti"))
		return c.NoContent(http.StatusOK)
	})

	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthMiddlewareSuite) TestRequireAuth_FallsBackToSubject() {
	s.mockVerifier.EXPECT().ExtractTokenFromHeader(gomock.Any()).Return("t", nil)
	s.mockVerifier.EXPECT().ValidateAccessToken("t").Return(&models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user@example.com"},
	}, nil)

	rec := s.request(s.mockVerifier, "Bearer t", func(c echo.Context) error {
		s.Equal("user@example.com", c.Get("user_id"))
		return c.NoContent(http.StatusOK)
	})

	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthMiddlewareSuite) TestRequireAuth_Rejections() {
	tests := []struct {
		name   string
		header string
		setup  func()
		code   string
	}{
		{
			name:   "missing header",
			header: "",
			setup:  func() {},
			code:   "AUTH_002",
		},
		{
			name:   "not a bearer header",
			header: "Basic abc",
			setup: func() {
				s.mockVerifier.EXPECT().ExtractTokenFromHeader("Basic abc").Return("", services.ErrInvalidAuthHeader)
			},
			code: "AUTH_004",
		},
		{
			name:   "expired",
			header: "Bearer old",
			setup: func() {
				s.mockVerifier.EXPECT().ExtractTokenFromHeader("Bearer old").Return("old", nil)
				s.mockVerifier.EXPECT().ValidateAccessToken("old").Return(nil, services.ErrExpiredToken)
			},
			code: "AUTH_003",
		},
		{
			name:   "invalid signature",
			header: "Bearer forged",
			setup: func() {
				s.mockVerifier.EXPECT().ExtractTokenFromHeader("Bearer forged").Return("forged", nil)
				s.mockVerifier.EXPECT().ValidateAccessToken("forged").Return(nil, errors.New("token signature is invalid"))
			},
			code: "AUTH_004",
		},
		{
			name:   "no subject",
			header: "Bearer anon",
			setup: func() {
				s.mockVerifier.EXPECT().ExtractTokenFromHeader("Bearer anon").Return("anon", nil)
				s.mockVerifier.EXPECT().ValidateAccessToken("anon").Return(&models.CustomClaims{}, nil)
			},
			code: "AUTH_004",
		},
	}

	for _, tt := range tests {
		tt.setup()
		rec := s.request(s.mockVerifier, tt.header, func(c echo.Context) error {
			s.Fail("next handler must not run", tt.name)
			return nil
		})

		s.Equal(http.StatusUnauthorized, rec.Code, tt.name)
		s.Contains(rec.Body.String(), tt.code, tt.name)
	}
}

func (s *AuthMiddlewareSuite) TestRequireAuth_WithRealVerifier() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	verifier := services.NewTokenVerifier(&config.JWTConfig{PublicKey: &key.PublicKey, Issuer: "finance-tracker"})

	sign := func(expiresAt time.Time) string {
		claims := models.CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "finance-tracker",
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:    "user-7",
			TokenType: services.TokenTypeAccess,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		s.Require().NoError(err)
		return token
	}

	rec := s.request(verifier, "Bearer "+sign(time.Now().Add(time.Hour)), nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(verifier, "Bearer "+sign(time.Now().Add(-time.Hour)), nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "AUTH_003")
}
