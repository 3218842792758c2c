package model

import "github.com/golang-jwt/jwt/v5"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	OrgID string `json:"orgId"`
}

// OrgClaims is the JWT payload for organization admin tokens.
type OrgClaims struct {
	OrgID string `json:"orgId"`
	jwt.RegisteredClaims
}
