package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusTrialing, StatusIncomplete, StatusPastDue, StatusIncompleteExpired, StatusCanceled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("paused").Valid())
}

func TestQualifyingStatuses(t *testing.T) {
	qualifying := QualifyingStatuses()
	assert.ElementsMatch(t, []Status{StatusActive, StatusTrialing, StatusIncomplete}, qualifying)
}

func TestSelectAuthoritativeEmpty(t *testing.T) {
	assert.Nil(t, SelectAuthoritative(nil))
	assert.Nil(t, SelectAuthoritative([]SubscriptionRecord{
		{Status: StatusCanceled},
		{Status: StatusPastDue},
	}))
}

func TestSelectAuthoritativeStatusRank(t *testing.T) {
	records := []SubscriptionRecord{
		{ID: 1, Status: StatusIncomplete, CurrentPeriodStart: tp("2026-07-01T00:00:00Z")},
		{ID: 2, Status: StatusActive, CurrentPeriodStart: tp("2026-01-01T00:00:00Z")},
		{ID: 3, Status: StatusTrialing, CurrentPeriodStart: tp("2026-06-01T00:00:00Z")},
	}

	winner := SelectAuthoritative(records)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), int64(winner.ID))
}

func TestSelectAuthoritativePeriodStart(t *testing.T) {
	records := []SubscriptionRecord{
		{ID: 1, Status: StatusActive, CurrentPeriodStart: tp("2026-05-01T00:00:00Z")},
		{ID: 2, Status: StatusActive, CurrentPeriodStart: tp("2026-07-01T00:00:00Z")},
		{ID: 3, Status: StatusActive},
	}

	winner := SelectAuthoritative(records)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), int64(winner.ID))
}

func TestSelectAuthoritativeNilPeriodLoses(t *testing.T) {
	records := []SubscriptionRecord{
		{ID: 1, Status: StatusActive},
		{ID: 2, Status: StatusActive, CurrentPeriodStart: tp("2020-01-01T00:00:00Z")},
	}

	winner := SelectAuthoritative(records)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), int64(winner.ID))
}

func TestSelectAuthoritativeCreatedAt(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	records := []SubscriptionRecord{
		{ID: 1, Status: StatusActive, CreatedAt: older},
		{ID: 2, Status: StatusActive, CreatedAt: newer},
	}

	winner := SelectAuthoritative(records)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), int64(winner.ID))
}

func TestProviderValid(t *testing.T) {
	assert.True(t, ProviderStripe.Valid())
	assert.True(t, ProviderApple.Valid())
	assert.False(t, Provider("playstore").Valid())
}

func TestPlanTierValid(t *testing.T) {
	assert.True(t, PlanTierPremium.Valid())
	assert.True(t, PlanTierPro.Valid())
	assert.False(t, PlanTier("gold").Valid())
}
