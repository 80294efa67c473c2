package utils

import (
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/models"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// UserClaimsKey is the fiber Locals / context key holding *UserClaims.
const UserClaimsKey contextKey = "user_claims"

var jwtSecret = []byte("secret")

// SetSecret allows injecting the secret from config
func SetSecret(secret string) {
	jwtSecret = []byte(secret)
}

type UserMetadata struct {
	Name      string `json:"name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserClaims mirrors the access tokens issued by the identity provider:
// the subject is the user id, profile data sits in user_metadata.
type UserClaims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

func (c *UserClaims) UserID() string {
	return c.Subject
}

// Identity converts the claims into the value the services consume.
func (c *UserClaims) Identity() models.Identity {
	name := strings.TrimSpace(c.UserMetadata.Name)
	if name == "" {
		name = strings.TrimSpace(c.UserMetadata.FullName)
	}
	id := models.Identity{
		UserID: c.Subject,
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
	}
	if c.UserMetadata.AvatarURL != "" {
		avatar := c.UserMetadata.AvatarURL
		id.Avatar = &avatar
	}
	return id
}

// GenerateToken signs a token shaped like the identity provider's. Used by
// the seed command and tests.
func GenerateToken(identity models.Identity, ttl time.Duration) (string, error) {
	claims := UserClaims{
		Email:        identity.Email,
		UserMetadata: UserMetadata{Name: identity.Name},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if identity.Avatar != nil {
		claims.UserMetadata.AvatarURL = *identity.Avatar
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		if claims.Subject == "" {
			return nil, jwt.ErrTokenInvalidClaims
		}
		return claims, nil
	}

	return nil, jwt.ErrTokenSignatureInvalid
}
