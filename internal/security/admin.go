package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrAdminDisabled is returned when no admin key hash is configured
var ErrAdminDisabled = errors.New("admin access is not configured")

// AdminKeyChecker verifies the X-API-Key header against a bcrypt hash
type AdminKeyChecker struct {
	hash []byte
}

// NewAdminKeyChecker validates and stores the configured bcrypt hash
func NewAdminKeyChecker(hash string) (*AdminKeyChecker, error) {
	if hash == "" {
		return nil, ErrAdminDisabled
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid admin key hash: %w", err)
	}
	return &AdminKeyChecker{hash: []byte(hash)}, nil
}

// Check reports whether key matches the configured hash
func (c *AdminKeyChecker) Check(key string) bool {
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.hash, []byte(key)) == nil
}

// HashAdminKey produces a hash suitable for admin.api_key_hash
func HashAdminKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(hash), nil
}
