// Package domain contains the account model consumed by entitlement
// resolution. Accounts are provisioned by the identity service; this service
// reads them and maintains the out-of-band grandfathering flag.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Account struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	Email             string            `gorm:"type:text;not null;uniqueIndex:ux_accounts_email"`
	FreeGrandfathered bool              `gorm:"not null;default:false"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string { return "accounts" }

// NormalizeEmail trims and lower-cases an email for matching. Subscription
// lookups and account uniqueness both rely on this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
