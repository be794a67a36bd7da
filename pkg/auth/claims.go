package auth

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role the homepage issues.
const RoleAdmin = "admin"

// AdminClaims represents the typed JWT issued to the site owner.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
