package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const tokenIssuer = "identity"

// JWTTokenIssuer signs session tokens with HS256. Every token carries a fresh
// uuid as its jti, so two accounts never share one.
type JWTTokenIssuer struct {
	key []byte
}

func NewJWTTokenIssuer(signingKey string) (*JWTTokenIssuer, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	return &JWTTokenIssuer{key: []byte(signingKey)}, nil
}

func (i *JWTTokenIssuer) Issue(issuedAt time.Time) (string, error) {
	claims := jwt.StandardClaims{
		Id:       uuid.NewString(),
		Issuer:   tokenIssuer,
		IssuedAt: issuedAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// Parse verifies a token minted by Issue and returns its claims.
func (i *JWTTokenIssuer) Parse(token string) (*jwt.StandardClaims, error) {
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// UUIDTokenIssuer hands out random uuids. It is the default when no signing
// key is configured.
type UUIDTokenIssuer struct{}

func (UUIDTokenIssuer) Issue(time.Time) (string, error) {
	return uuid.NewString(), nil
}
