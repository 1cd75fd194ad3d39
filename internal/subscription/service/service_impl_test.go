package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/briarworks/briarkeep/internal/cache"
	"github.com/briarworks/briarkeep/internal/clock"
	"github.com/briarworks/briarkeep/internal/subscription/repository"
	"github.com/briarworks/briarkeep/pkg/db/pagination"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

type fixture struct {
	svc   subscriptiondomain.Service
	conn  *gorm.DB
	node  *snowflake.Node
	fake  *clock.FakeClock
	cache cache.DecisionCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&subscriptiondomain.SubscriptionRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	decisions := cache.NewDecisionCache()

	svc := NewService(ServiceParam{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		Decisions: decisions,
	})
	return &fixture{svc: svc, conn: conn, node: node, fake: fake, cache: decisions}
}

type recordSpec struct {
	userID   *snowflake.ID
	email    string
	provider subscriptiondomain.Provider
	status   subscriptiondomain.Status
	tier     subscriptiondomain.PlanTier
	started  *time.Time
	period   *time.Time
	created  time.Time
}

func (f *fixture) insert(t *testing.T, spec recordSpec) *subscriptiondomain.SubscriptionRecord {
	t.Helper()

	provider := spec.provider
	if provider == "" {
		provider = subscriptiondomain.ProviderStripe
	}
	record := &subscriptiondomain.SubscriptionRecord{
		ID:                     f.node.Generate(),
		UserID:                 spec.userID,
		UserEmail:              spec.email,
		Provider:               provider,
		ProviderSubscriptionID: "sub_" + f.node.Generate().String(),
		Status:                 spec.status,
		PlanTier:               spec.tier,
		StartedAt:              spec.started,
		CurrentPeriodStart:     spec.period,
		CreatedAt:              spec.created,
		UpdatedAt:              spec.created,
	}
	require.NoError(t, f.conn.Create(record).Error)
	return record
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestResolveRequiresEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{UserID: "42"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrMissingEmail)
}

func TestResolveNoRecords(t *testing.T) {
	f := newFixture(t)

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{Email: "nobody@example.com"})
	require.NoError(t, err)

	assert.False(t, decision.IsPaidSubscriber)
	assert.False(t, decision.IsProSubscriber)
	assert.Nil(t, decision.EffectiveStart)
	assert.Equal(t, subscriptiondomain.MatchPathNone, decision.MatchPath)
}

func TestResolveUserIDBeatsLegacyEmail(t *testing.T) {
	f := newFixture(t)
	now := f.fake.Now()

	// Legacy stripe record on the email with a pro plan, linked record on
	// the user id with premium. The linked record must still win.
	f.insert(t, recordSpec{
		email:   "collector@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPro,
		started: ts("2024-01-01T00:00:00Z"),
		created: now.Add(-48 * time.Hour),
	})
	f.insert(t, recordSpec{
		userID:  idPtr(77),
		email:   "collector@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPremium,
		started: ts("2026-03-01T00:00:00Z"),
		created: now.Add(-24 * time.Hour),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "77",
		Email:  "collector@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, subscriptiondomain.MatchPathUserID, decision.MatchPath)
	assert.True(t, decision.IsPaidSubscriber)
	assert.False(t, decision.IsProSubscriber)
	require.NotNil(t, decision.EffectiveStart)
	assert.True(t, decision.EffectiveStart.Equal(*ts("2026-03-01T00:00:00Z")))
}

func TestResolveLegacyEmailFallback(t *testing.T) {
	f := newFixture(t)

	f.insert(t, recordSpec{
		email:   "legacy@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPremium,
		started: ts("2025-06-01T00:00:00Z"),
		created: f.fake.Now(),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "99",
		Email:  "Legacy@Example.com ",
	})
	require.NoError(t, err)

	assert.Equal(t, subscriptiondomain.MatchPathLegacyEmail, decision.MatchPath)
	assert.True(t, decision.IsPaidSubscriber)
}

func TestResolveAppleNeverMatchedByEmail(t *testing.T) {
	f := newFixture(t)

	f.insert(t, recordSpec{
		email:    "apple-only@example.com",
		provider: subscriptiondomain.ProviderApple,
		status:   subscriptiondomain.StatusActive,
		tier:     subscriptiondomain.PlanTierPro,
		created:  f.fake.Now(),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{Email: "apple-only@example.com"})
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.MatchPathNone, decision.MatchPath)
	assert.False(t, decision.IsPaidSubscriber)
}

func TestResolveNonQualifyingStatuses(t *testing.T) {
	f := newFixture(t)

	for _, status := range []subscriptiondomain.Status{
		subscriptiondomain.StatusPastDue,
		subscriptiondomain.StatusIncompleteExpired,
		subscriptiondomain.StatusCanceled,
	} {
		f.insert(t, recordSpec{
			userID:  idPtr(55),
			email:   "churned@example.com",
			status:  status,
			tier:    subscriptiondomain.PlanTierPremium,
			created: f.fake.Now(),
		})
	}

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "55",
		Email:  "churned@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.MatchPathNone, decision.MatchPath)
}

func TestResolveTrialingAndIncompleteQualify(t *testing.T) {
	f := newFixture(t)

	f.insert(t, recordSpec{
		userID:  idPtr(56),
		email:   "trial@example.com",
		status:  subscriptiondomain.StatusTrialing,
		tier:    subscriptiondomain.PlanTierPro,
		created: f.fake.Now(),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "56",
		Email:  "trial@example.com",
	})
	require.NoError(t, err)
	assert.True(t, decision.IsPaidSubscriber)
	assert.True(t, decision.IsProSubscriber)
}

func TestResolveTieBreak(t *testing.T) {
	f := newFixture(t)
	now := f.fake.Now()

	// Active beats trialing regardless of recency.
	f.insert(t, recordSpec{
		userID:  idPtr(60),
		email:   "tie@example.com",
		status:  subscriptiondomain.StatusTrialing,
		tier:    subscriptiondomain.PlanTierPro,
		period:  ts("2026-07-01T00:00:00Z"),
		created: now,
	})
	f.insert(t, recordSpec{
		userID:  idPtr(60),
		email:   "tie@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPremium,
		period:  ts("2026-01-01T00:00:00Z"),
		created: now.Add(-time.Hour),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "60",
		Email:  "tie@example.com",
	})
	require.NoError(t, err)
	assert.True(t, decision.IsPaidSubscriber)
	assert.False(t, decision.IsProSubscriber)
}

func TestResolveTieBreakPeriodStart(t *testing.T) {
	f := newFixture(t)
	now := f.fake.Now()

	// Same status: the later current period start wins.
	f.insert(t, recordSpec{
		userID:  idPtr(61),
		email:   "tie2@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPremium,
		period:  ts("2026-05-01T00:00:00Z"),
		created: now,
	})
	f.insert(t, recordSpec{
		userID:  idPtr(61),
		email:   "tie2@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPro,
		period:  ts("2026-07-01T00:00:00Z"),
		created: now.Add(-time.Hour),
	})

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
		UserID: "61",
		Email:  "tie2@example.com",
	})
	require.NoError(t, err)
	assert.True(t, decision.IsProSubscriber)
}

func TestResolveEffectiveStartChain(t *testing.T) {
	f := newFixture(t)
	fallback := ts("2023-04-01T00:00:00Z")

	cases := []struct {
		name    string
		started *time.Time
		period  *time.Time
		want    *time.Time
	}{
		{"started_at wins", ts("2025-01-01T00:00:00Z"), ts("2026-01-01T00:00:00Z"), ts("2025-01-01T00:00:00Z")},
		{"period start next", nil, ts("2026-01-01T00:00:00Z"), ts("2026-01-01T00:00:00Z")},
		{"fallback last", nil, nil, fallback},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := snowflake.ID(200 + i)
			email := "start" + userID.String() + "@example.com"
			f.insert(t, recordSpec{
				userID:  idPtr(userID),
				email:   email,
				status:  subscriptiondomain.StatusActive,
				tier:    subscriptiondomain.PlanTierPremium,
				started: tc.started,
				period:  tc.period,
				created: f.fake.Now(),
			})

			decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{
				UserID:        userID.String(),
				Email:         email,
				FallbackStart: fallback,
			})
			require.NoError(t, err)
			require.NotNil(t, decision.EffectiveStart)
			assert.True(t, decision.EffectiveStart.Equal(*tc.want))
		})
	}
}

func TestResolveCachesDecision(t *testing.T) {
	f := newFixture(t)

	decision, err := f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{Email: "cached@example.com"})
	require.NoError(t, err)
	assert.False(t, decision.IsPaidSubscriber)

	// A record added behind the cache is invisible until invalidation.
	f.insert(t, recordSpec{
		email:   "cached@example.com",
		status:  subscriptiondomain.StatusActive,
		tier:    subscriptiondomain.PlanTierPremium,
		created: f.fake.Now(),
	})

	decision, err = f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{Email: "cached@example.com"})
	require.NoError(t, err)
	assert.False(t, decision.IsPaidSubscriber)

	f.cache.Invalidate("", "cached@example.com")
	decision, err = f.svc.Resolve(context.Background(), subscriptiondomain.ResolveRequest{Email: "cached@example.com"})
	require.NoError(t, err)
	assert.True(t, decision.IsPaidSubscriber)
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Upsert(ctx, subscriptiondomain.UpsertRequest{
		UserEmail:              "Upsert@Example.com",
		Provider:               subscriptiondomain.ProviderStripe,
		ProviderSubscriptionID: "sub_123",
		Status:                 subscriptiondomain.StatusTrialing,
		PlanTier:               subscriptiondomain.PlanTierPremium,
	})
	require.NoError(t, err)
	assert.Equal(t, "upsert@example.com", created.UserEmail)

	updated, err := f.svc.Upsert(ctx, subscriptiondomain.UpsertRequest{
		UserID:                 "88",
		UserEmail:              "upsert@example.com",
		Provider:               subscriptiondomain.ProviderStripe,
		ProviderSubscriptionID: "sub_123",
		Status:                 subscriptiondomain.StatusActive,
		PlanTier:               subscriptiondomain.PlanTierPro,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, subscriptiondomain.StatusActive, updated.Status)

	page, err := f.svc.List(ctx, subscriptiondomain.ListRequest{Email: "upsert@example.com"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.False(t, page.HasMore)
}

func TestUpsertValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := subscriptiondomain.UpsertRequest{
		UserEmail:              "v@example.com",
		Provider:               subscriptiondomain.ProviderStripe,
		ProviderSubscriptionID: "sub_v",
		Status:                 subscriptiondomain.StatusActive,
		PlanTier:               subscriptiondomain.PlanTierPremium,
	}

	req := base
	req.UserEmail = ""
	_, err := f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrMissingEmail)

	req = base
	req.Provider = "playstore"
	_, err = f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidProvider)

	req = base
	req.ProviderSubscriptionID = ""
	_, err = f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrMissingProviderID)

	req = base
	req.Status = "paused"
	_, err = f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidStatus)

	req = base
	req.PlanTier = "gold"
	_, err = f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidPlanTier)

	req = base
	req.UserID = "bogus"
	_, err = f.svc.Upsert(ctx, req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidUserID)
}

func TestUpsertInvalidatesCachedDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	decision, err := f.svc.Resolve(ctx, subscriptiondomain.ResolveRequest{Email: "fresh@example.com"})
	require.NoError(t, err)
	assert.False(t, decision.IsPaidSubscriber)

	_, err = f.svc.Upsert(ctx, subscriptiondomain.UpsertRequest{
		UserEmail:              "fresh@example.com",
		Provider:               subscriptiondomain.ProviderStripe,
		ProviderSubscriptionID: "sub_fresh",
		Status:                 subscriptiondomain.StatusActive,
		PlanTier:               subscriptiondomain.PlanTierPremium,
	})
	require.NoError(t, err)

	decision, err = f.svc.Resolve(ctx, subscriptiondomain.ResolveRequest{Email: "fresh@example.com"})
	require.NoError(t, err)
	assert.True(t, decision.IsPaidSubscriber)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.insert(t, recordSpec{
			email:   "page@example.com",
			status:  subscriptiondomain.StatusActive,
			tier:    subscriptiondomain.PlanTierPremium,
			created: base.Add(time.Duration(i) * time.Hour),
		})
	}

	first, err := f.svc.List(ctx, subscriptiondomain.ListRequest{Email: "page@example.com", Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Records, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := f.svc.List(ctx, subscriptiondomain.ListRequest{
		Email:     "page@example.com",
		Limit:     2,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Records, 2)
	assert.True(t, second.HasMore)

	// Newest first, no overlap between pages.
	seen := map[string]bool{}
	for _, r := range append(first.Records, second.Records...) {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}

	last, err := f.svc.List(ctx, subscriptiondomain.ListRequest{
		Email:     "page@example.com",
		Limit:     2,
		PageToken: second.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, last.Records, 1)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextPageToken)
}

func TestListInvalidPageToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), subscriptiondomain.ListRequest{
		Email:     "page@example.com",
		PageToken: "garbage",
	})
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}
