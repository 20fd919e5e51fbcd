package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyText is returned when there is nothing to embed
var ErrEmptyText = errors.New("text is empty")

// ValidationError is a malformed or missing request field
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError means the caller's provider key was rejected
type AuthError struct {
	Service ServiceType
}

func (e *AuthError) Error() string {
	return "invalid API key"
}

// UnsupportedProviderError is returned for a service type with no registered provider
type UnsupportedProviderError struct {
	Service string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported service type: %s", e.Service)
}

// ProviderCallError wraps a failed call to an upstream LLM provider
type ProviderCallError struct {
	Provider string
	Err      error
}

func (e *ProviderCallError) Error() string {
	return fmt.Sprintf("failed to get response from %s: %v", e.Provider, e.Err)
}

// PublicMessage is safe to return to callers
func (e *ProviderCallError) PublicMessage() string {
	return "Failed to get response from " + e.Provider
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when a session has no stored history
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// InternalError hides an unexpected failure behind a generic message
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal server error"
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
