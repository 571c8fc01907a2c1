package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
)

const (
	tokenContextKey = "userToken"
	tokenAudience   = "Tutoria"
)

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	IsTeacher bool     `json:"is_teacher,omitempty"`
	IsAdmin   bool     `json:"is_admin,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// NewClaims returns the claims of subject, valid from now for the configured JWT expiration delta.
func NewClaims(conf *core.Config, subject, username, email string, roles []string, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:  username,
		Email:     email,
		IsTeacher: core.HasRolePrefix(roles, core.RoleTeacher),
		IsAdmin:   core.HasRolePrefix(roles, core.RoleAdmin),
		Roles:     roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(secretKey string, claims *Claims) (string, error) {
	conf := newJWTConfig(secretKey)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(conf.SigningMethod), claims)

	ss, err := token.SignedString(conf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
