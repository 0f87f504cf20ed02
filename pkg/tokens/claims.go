package tokens

import "github.com/golang-jwt/jwt/v5"

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}
