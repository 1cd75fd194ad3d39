package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Email             string         `json:"email"`
	FreeGrandfathered bool           `json:"free_grandfathered"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type Response struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	FreeGrandfathered bool           `json:"free_grandfathered"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, limit int) ([]Response, error)

	// SetGrandfathered flips the out-of-band unlimited-free flag.
	SetGrandfathered(ctx context.Context, id string, grandfathered bool) (*Response, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrEmailTaken   = errors.New("email_taken")
	ErrNotFound     = errors.New("account_not_found")
)
