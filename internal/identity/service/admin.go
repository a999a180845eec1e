package service

import (
	"crypto/subtle"
	"strings"
)

// AdminToken guards the ingestion endpoints with a single shared secret.
type AdminToken struct {
	secret []byte
}

func NewAdminToken(secret string) AdminToken {
	return AdminToken{secret: []byte(secret)}
}

// Allow reports whether an Authorization header carries the admin secret,
// with or without a "Bearer " prefix. An unset secret allows nothing.
func (a AdminToken) Allow(header string) bool {
	if len(a.secret) == 0 || header == "" {
		return false
	}
	token := header
	if t, ok := strings.CutPrefix(header, "Bearer "); ok {
		token = t
	}
	return subtle.ConstantTimeCompare([]byte(token), a.secret) == 1
}
