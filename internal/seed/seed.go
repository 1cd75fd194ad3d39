// Package seed provisions the minimum data a fresh installation needs: the
// bootstrap API key and, for local development, a demo account with a known
// subscription history.
package seed

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	apikeydomain "github.com/briarworks/briarkeep/internal/apikey/domain"
	"github.com/briarworks/briarkeep/internal/config"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

const (
	demoAccountEmail = "demo@briarkeep.dev"
	bootstrapKeyName = "bootstrap"
)

// EnsureBootstrap runs after migrations and is idempotent: existing rows are
// left untouched on every subsequent start.
func EnsureBootstrap(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.APIKey != "" {
		if err := ensureBootstrapKey(db, node, cfg.Bootstrap.APIKey); err != nil {
			return err
		}
	}
	if cfg.Bootstrap.DemoAccount {
		if err := ensureDemoAccount(db, node); err != nil {
			return err
		}
	}
	return nil
}

func ensureBootstrapKey(db *gorm.DB, node *snowflake.Node, rawKey string) error {
	hash := apikeydomain.HashAPIKey(rawKey)

	var count int64
	if err := db.Model(&apikeydomain.APIKey{}).Where("key_hash = ?", hash).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Create(&apikeydomain.APIKey{
		ID:        node.Generate(),
		Name:      bootstrapKeyName,
		KeyHash:   hash,
		Scopes:    []string{apikeydomain.ScopeAdmin},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func ensureDemoAccount(db *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := db.Model(&accountdomain.Account{}).Where("email = ?", demoAccountEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	account := &accountdomain.Account{
		ID:        node.Generate(),
		Email:     demoAccountEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(account).Error; err != nil {
		return err
	}

	// One qualifying record so the demo account resolves as premium.
	userID := account.ID
	started := now.AddDate(0, -1, 0)
	return db.Create(&subscriptiondomain.SubscriptionRecord{
		ID:                     node.Generate(),
		UserID:                 &userID,
		UserEmail:              demoAccountEmail,
		Provider:               subscriptiondomain.ProviderStripe,
		ProviderSubscriptionID: "sub_demo_" + account.ID.String(),
		Status:                 subscriptiondomain.StatusActive,
		PlanTier:               subscriptiondomain.PlanTierPremium,
		StartedAt:              &started,
		CurrentPeriodStart:     &now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}).Error
}
