package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidName   = errors.New("invalid_key_name")
	ErrInvalidScopes = errors.New("invalid_key_scopes")
	ErrKeyNotFound   = errors.New("api_key_not_found")
	ErrKeyRevoked    = errors.New("api_key_revoked")
	ErrKeyExpired    = errors.New("api_key_expired")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByHash(ctx context.Context, db *gorm.DB, hash string) (*APIKey, error)
	List(ctx context.Context, db *gorm.DB) ([]APIKey, error)
	SetActive(ctx context.Context, db *gorm.DB, id int64, active bool) error
	TouchLastUsed(ctx context.Context, db *gorm.DB, id int64, at time.Time) error
}

type CreateRequest struct {
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SecretResponse is returned exactly once, at creation. The plain secret is
// never stored or shown again.
type SecretResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

type Response struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	List(ctx context.Context) ([]Response, error)
	Revoke(ctx context.Context, id string) error

	// Authenticate validates a presented secret and returns the active key.
	Authenticate(ctx context.Context, raw string) (*APIKey, error)
}
