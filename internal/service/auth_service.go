package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"canvass/internal/config"
	"canvass/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and validates organization admin tokens. Credentials
// come from the environment; real identity management lives elsewhere.
type AuthService struct {
	orgID       string
	orgUsername string
	orgPassword string
	jwtSecret   []byte
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		orgID:       cfg.OrgID,
		orgUsername: cfg.OrgUsername,
		orgPassword: cfg.OrgPassword,
		jwtSecret:   []byte(cfg.JWTSecret),
	}
}

// Login validates credentials and returns an org-scoped token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.orgUsername || password != s.orgPassword {
		return nil, ErrInvalidCredentials
	}

	claims := &model.OrgClaims{
		OrgID: s.orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token: tokenString,
		OrgID: s.orgID,
	}, nil
}

// ValidateOrgToken validates an org JWT and returns its claims
func (s *AuthService) ValidateOrgToken(tokenString string) (*model.OrgClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.OrgClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.OrgClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
