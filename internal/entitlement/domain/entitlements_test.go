package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

var testPolicy = Policy{
	LegacyCutoff:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	FreePipeLimit:  5,
	FreeBlendLimit: 10,
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestEvaluateFreeTier(t *testing.T) {
	ents := Evaluate(subscriptiondomain.Decision{MatchPath: subscriptiondomain.MatchPathNone}, false, testPolicy)

	assert.Equal(t, TierFree, ents.Tier)
	assert.False(t, ents.HasLegacyBonus)
	require.False(t, ents.Limits.Pipes.IsUnlimited())
	assert.Equal(t, 5, ents.Limits.Pipes.Value())
	assert.Equal(t, 10, ents.Limits.Blends.Value())
}

func TestEvaluateFreeGrandfathered(t *testing.T) {
	ents := Evaluate(subscriptiondomain.Decision{}, true, testPolicy)

	assert.Equal(t, TierFree, ents.Tier)
	assert.True(t, ents.Limits.Pipes.IsUnlimited())
	assert.True(t, ents.Limits.Blends.IsUnlimited())
}

func TestEvaluatePremium(t *testing.T) {
	ents := Evaluate(subscriptiondomain.Decision{
		IsPaidSubscriber: true,
		EffectiveStart:   ts("2026-06-01T00:00:00Z"),
		MatchPath:        subscriptiondomain.MatchPathUserID,
	}, false, testPolicy)

	assert.Equal(t, TierPremium, ents.Tier)
	assert.False(t, ents.HasLegacyBonus)
	assert.True(t, ents.Limits.Pipes.IsUnlimited())
	assert.True(t, ents.CanUse(FeatureSmokingLog))
	assert.False(t, ents.CanUse(FeatureAIIdentify))
}

func TestEvaluatePro(t *testing.T) {
	ents := Evaluate(subscriptiondomain.Decision{
		IsPaidSubscriber: true,
		IsProSubscriber:  true,
		EffectiveStart:   ts("2025-01-01T00:00:00Z"),
		MatchPath:        subscriptiondomain.MatchPathUserID,
	}, false, testPolicy)

	assert.Equal(t, TierPro, ents.Tier)
	// Pro already holds the bonus features; the flag stays off.
	assert.False(t, ents.HasLegacyBonus)
	assert.True(t, ents.CanUse(FeatureAIIdentify))
	assert.True(t, ents.CanUse(FeatureExportReports))
}

func TestEvaluateLegacyBonus(t *testing.T) {
	cases := []struct {
		name  string
		start *time.Time
		bonus bool
	}{
		{"before cutoff", ts("2026-01-31T23:59:59Z"), true},
		{"at cutoff", ts("2026-02-01T00:00:00Z"), false},
		{"after cutoff", ts("2026-03-01T00:00:00Z"), false},
		{"unknown start", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ents := Evaluate(subscriptiondomain.Decision{
				IsPaidSubscriber: true,
				EffectiveStart:   tc.start,
				MatchPath:        subscriptiondomain.MatchPathUserID,
			}, false, testPolicy)

			assert.Equal(t, TierPremium, ents.Tier)
			assert.Equal(t, tc.bonus, ents.HasLegacyBonus)
			assert.Equal(t, tc.bonus, ents.CanUse(FeatureAIUpdates))
			assert.Equal(t, tc.bonus, ents.CanUse(FeatureBulkEdit))
			assert.Equal(t, tc.bonus, ents.CanUse(FeatureExportReports))
			// Non-bonus pro features stay closed regardless.
			assert.False(t, ents.CanUse(FeaturePairingAdvanced))
			assert.False(t, ents.CanUse(FeatureAnalyticsInsights))
			assert.False(t, ents.CanUse(FeatureCollectionOptimization))
		})
	}
}

func TestCanUseUnknownFeature(t *testing.T) {
	ents := Evaluate(subscriptiondomain.Decision{
		IsPaidSubscriber: true,
		IsProSubscriber:  true,
	}, false, testPolicy)

	assert.False(t, ents.CanUse(Feature("TIME_TRAVEL")))
	assert.False(t, ents.CanUse(Feature("")))
}

func TestCanUseBaseFeatures(t *testing.T) {
	free := Evaluate(subscriptiondomain.Decision{}, false, testPolicy)
	for _, f := range []Feature{FeatureBasicCollection, FeatureSearch, FeatureCommunityBrowse, FeatureMultilingual} {
		assert.True(t, free.CanUse(f), string(f))
	}
	assert.False(t, free.CanUse(FeatureUnlimitedCollection))
	assert.False(t, free.CanUse(FeatureMessaging))
}

func TestLimitAllows(t *testing.T) {
	l := BoundedLimit(5)
	assert.True(t, l.Allows(0))
	assert.True(t, l.Allows(4))
	assert.False(t, l.Allows(5))
	assert.False(t, l.Allows(6))

	assert.True(t, Unlimited().Allows(1_000_000))
}

func TestCatalogComplete(t *testing.T) {
	grants := Catalog()
	require.Len(t, grants, len(featureTiers))

	seen := map[Feature]bool{}
	for _, g := range grants {
		assert.NotEmpty(t, g.Tiers, string(g.Feature))
		seen[g.Feature] = true
	}
	for f := range featureTiers {
		assert.True(t, seen[f], string(f))
	}
}

func TestGrantedFeatures(t *testing.T) {
	free := Evaluate(subscriptiondomain.Decision{}, false, testPolicy)
	assert.Len(t, free.GrantedFeatures(), 4)

	pro := Evaluate(subscriptiondomain.Decision{IsPaidSubscriber: true, IsProSubscriber: true}, false, testPolicy)
	assert.Len(t, pro.GrantedFeatures(), len(featureTiers))
}
