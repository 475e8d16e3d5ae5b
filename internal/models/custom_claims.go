package models

import "github.com/golang-jwt/jwt/v5"

// CustomClaims are the claims carried by access tokens issued by the auth service.
type CustomClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}
