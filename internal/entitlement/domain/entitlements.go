package domain

import (
	"errors"
	"time"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpgradeRequired = errors.New("upgrade_required")
)

// Policy carries the tunable evaluation knobs. It is a plain value so the
// evaluator stays pure; callers snapshot it from configuration per request.
type Policy struct {
	LegacyCutoff   time.Time
	FreePipeLimit  int
	FreeBlendLimit int
}

// Entitlements is the evaluated result for one user at one instant.
type Entitlements struct {
	Tier           Tier       `json:"tier"`
	Limits         Limits     `json:"limits"`
	HasLegacyBonus bool       `json:"has_legacy_bonus"`
	EffectiveStart *time.Time `json:"effective_start,omitempty"`

	MatchPath subscriptiondomain.MatchPath `json:"match_path"`
}

// CanUse reports whether the feature is available at this entitlement level.
// Unknown features are denied.
func (e Entitlements) CanUse(feature Feature) bool {
	set, ok := featureTiers[feature]
	if !ok {
		return false
	}
	if set&tierBit(e.Tier) != 0 {
		return true
	}
	if e.HasLegacyBonus {
		if _, bonus := legacyBonusFeatures[feature]; bonus {
			return true
		}
	}
	return false
}

// GrantedFeatures lists every feature CanUse would allow, in catalog order.
func (e Entitlements) GrantedFeatures() []Feature {
	granted := make([]Feature, 0, len(featureTiers))
	for _, grant := range Catalog() {
		if e.CanUse(grant.Feature) {
			granted = append(granted, grant.Feature)
		}
	}
	return granted
}

// Evaluate derives entitlements from a resolved subscription decision. It is
// deterministic: same decision, flags and policy always yield the same result.
func Evaluate(decision subscriptiondomain.Decision, freeGrandfathered bool, policy Policy) Entitlements {
	tier := TierFree
	if decision.IsPaidSubscriber {
		tier = TierPremium
		if decision.IsProSubscriber {
			tier = TierPro
		}
	}

	legacyBonus := tier == TierPremium &&
		decision.EffectiveStart != nil &&
		decision.EffectiveStart.Before(policy.LegacyCutoff)

	limits := Limits{Pipes: Unlimited(), Blends: Unlimited()}
	if tier == TierFree && !freeGrandfathered {
		limits = Limits{
			Pipes:  BoundedLimit(policy.FreePipeLimit),
			Blends: BoundedLimit(policy.FreeBlendLimit),
		}
	}

	return Entitlements{
		Tier:           tier,
		Limits:         limits,
		HasLegacyBonus: legacyBonus,
		EffectiveStart: decision.EffectiveStart,
		MatchPath:      decision.MatchPath,
	}
}
