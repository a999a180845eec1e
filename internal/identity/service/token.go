package service

import (
	"context"
	"errors"

	"plusnotify/internal/identity/model"

	"github.com/golang-jwt/jwt/v5"
)

type subscriberClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTValidator validates HMAC-signed subscriber tokens.
type JWTValidator struct {
	secret []byte
	issuer string
}

func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret), issuer: issuer}
}

func (v *JWTValidator) Validate(_ context.Context, tokenString string) model.Payload {
	if len(v.secret) == 0 {
		return model.Payload{Error: "token validation is not configured"}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &subscriberClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return model.Payload{Error: "token expired"}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return model.Payload{Error: "invalid signature"}
		default:
			return model.Payload{Error: "invalid token"}
		}
	}
	if !token.Valid {
		return model.Payload{Error: "invalid token"}
	}
	if claims.Subject == "" {
		return model.Payload{Error: "missing subject"}
	}

	return model.Payload{Subject: claims.Subject, Email: claims.Email}
}
