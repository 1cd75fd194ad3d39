// Package domain holds the API key model used for service-to-service
// authentication. Keys are issued to sibling services (mobile backend,
// billing webhook relay), never to end users.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

const (
	ScopeEntitlementsRead   = "entitlements:read"
	ScopeSubscriptionsWrite = "subscriptions:write"
	ScopeAccountsWrite      = "accounts:write"
	ScopeCollectionsWrite   = "collections:write"
	ScopeAdmin              = "admin"
)

// APIKey stores only the SHA-256 of the issued secret.
type APIKey struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	Name       string         `gorm:"type:text;not null"`
	KeyHash    string         `gorm:"column:key_hash;type:text;not null;uniqueIndex:ux_api_keys_hash"`
	Scopes     pq.StringArray `gorm:"type:text[];not null"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true"`
	ExpiresAt  *time.Time     `gorm:"column:expires_at"`
	LastUsedAt *time.Time     `gorm:"column:last_used_at"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (APIKey) TableName() string { return "api_keys" }

// HashAPIKey hashes a raw secret with the same strategy key creation uses.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HasScope reports whether the key carries the scope. Admin implies all.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}
