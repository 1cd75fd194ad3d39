// Package domain holds the entitlement rules: tiers, limits, the feature
// table and the pure evaluation over a resolved subscription decision.
package domain

import "encoding/json"

// Tier is a user's entitlement level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// Limit is a tagged collection cap: either bounded at a count or unlimited.
// Consumers must go through Allows instead of comparing raw numbers, so an
// "unlimited" sentinel can never leak into arithmetic.
type Limit struct {
	unlimited bool
	value     int
}

func BoundedLimit(n int) Limit { return Limit{value: n} }

func Unlimited() Limit { return Limit{unlimited: true} }

func (l Limit) IsUnlimited() bool { return l.unlimited }

// Value returns the cap for bounded limits; it is meaningless when unlimited.
func (l Limit) Value() int { return l.value }

// Allows reports whether a collection currently at count may grow by one.
func (l Limit) Allows(count int) bool {
	if l.unlimited {
		return true
	}
	return count < l.value
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unlimited {
		return json.Marshal(map[string]any{"unlimited": true})
	}
	return json.Marshal(map[string]any{"unlimited": false, "value": l.value})
}

// Limits caps the two collection kinds the application tracks.
type Limits struct {
	Pipes  Limit `json:"pipes"`
	Blends Limit `json:"blends"`
}
