// Package domain contains subscription records and the selection rules that
// pick the authoritative record for an identity. Records are written by the
// external billing-sync process; this service reads them and accepts upserts
// from that process.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Provider identifies the billing system a record originated from.
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderApple  Provider = "apple"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderStripe, ProviderApple:
		return true
	default:
		return false
	}
}

// Status mirrors the provider-side subscription lifecycle.
type Status string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusIncomplete        Status = "incomplete"
	StatusPastDue           Status = "past_due"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusCanceled          Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusIncomplete,
		StatusPastDue, StatusIncompleteExpired, StatusCanceled:
		return true
	default:
		return false
	}
}

// QualifyingStatuses are the only statuses that grant entitlements.
func QualifyingStatuses() []Status {
	return []Status{StatusActive, StatusTrialing, StatusIncomplete}
}

// PlanTier is the paid tier a record grants.
type PlanTier string

const (
	PlanTierPremium PlanTier = "premium"
	PlanTierPro     PlanTier = "pro"
)

func (t PlanTier) Valid() bool {
	return t == PlanTierPremium || t == PlanTierPro
}

// SubscriptionRecord is one provider-side subscription. A user may have
// several (duplicate Stripe customers, provider migration); resolution picks
// exactly one per request.
type SubscriptionRecord struct {
	ID                     snowflake.ID      `gorm:"primaryKey"`
	UserID                 *snowflake.ID     `gorm:"index"`
	UserEmail              string            `gorm:"type:text;not null;index"`
	Provider               Provider          `gorm:"type:text;not null;uniqueIndex:ux_subscription_records_provider_sub,priority:1"`
	ProviderSubscriptionID string            `gorm:"type:text;not null;uniqueIndex:ux_subscription_records_provider_sub,priority:2"`
	Status                 Status            `gorm:"type:text;not null"`
	PlanTier               PlanTier          `gorm:"type:text;not null"`
	StartedAt              *time.Time        `gorm:""`
	CurrentPeriodStart     *time.Time        `gorm:""`
	Metadata               datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SubscriptionRecord) TableName() string { return "subscription_records" }

func statusRank(s Status) int {
	switch s {
	case StatusActive:
		return 3
	case StatusTrialing:
		return 2
	case StatusIncomplete:
		return 1
	default:
		return 0
	}
}

// SelectAuthoritative picks the winning record among qualifying candidates:
// status rank first (active > trialing > incomplete), then the most recent
// current period start (records without one sort last), then the most
// recently created record. The order of the input slice never matters, so the
// outcome is stable regardless of what the store returned.
func SelectAuthoritative(records []SubscriptionRecord) *SubscriptionRecord {
	var best *SubscriptionRecord
	for i := range records {
		candidate := &records[i]
		if statusRank(candidate.Status) == 0 {
			continue
		}
		if best == nil || beats(candidate, best) {
			best = candidate
		}
	}
	return best
}

func beats(a, b *SubscriptionRecord) bool {
	if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
		return ra > rb
	}
	if pa, pb := a.CurrentPeriodStart, b.CurrentPeriodStart; pa != nil || pb != nil {
		switch {
		case pa == nil:
			return false
		case pb == nil:
			return true
		case !pa.Equal(*pb):
			return pa.After(*pb)
		}
	}
	return a.CreatedAt.After(b.CreatedAt)
}
