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

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	accountrepository "github.com/briarworks/briarkeep/internal/account/repository"
	"github.com/briarworks/briarkeep/internal/config"
	"github.com/briarworks/briarkeep/internal/entitlement/domain"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

type stubResolver struct {
	decision subscriptiondomain.Decision
	err      error
	lastReq  subscriptiondomain.ResolveRequest
}

func (s *stubResolver) Resolve(_ context.Context, req subscriptiondomain.ResolveRequest) (subscriptiondomain.Decision, error) {
	s.lastReq = req
	return s.decision, s.err
}

func (s *stubResolver) Upsert(context.Context, subscriptiondomain.UpsertRequest) (*subscriptiondomain.RecordResponse, error) {
	panic("not used")
}

func (s *stubResolver) List(context.Context, subscriptiondomain.ListRequest) (*subscriptiondomain.ListResponse, error) {
	panic("not used")
}

func newTestService(t *testing.T, resolver subscriptiondomain.Service) (*Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&accountdomain.Account{}))

	holder, err := config.NewPolicyHolder(zap.NewNop())
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:            conn,
		Log:           zap.NewNop(),
		Policy:        holder,
		Accounts:      accountrepository.Provide(),
		Subscriptions: resolver,
	})
	return svc.(*Service), conn
}

func seedAccount(t *testing.T, conn *gorm.DB, id int64, email string, grandfathered bool, createdAt time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&accountdomain.Account{
		ID:                snowflake.ID(id),
		Email:             email,
		FreeGrandfathered: grandfathered,
		CreatedAt:         createdAt,
	}).Error)
}

func TestResolveRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(t, &stubResolver{})

	_, err := svc.Resolve(context.Background(), domain.ResolveRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Resolve(context.Background(), domain.ResolveRequest{Email: "   "})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestResolvePassesAccountFallback(t *testing.T) {
	created := time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC)
	resolver := &stubResolver{decision: subscriptiondomain.Decision{MatchPath: subscriptiondomain.MatchPathNone}}
	svc, conn := newTestService(t, resolver)
	seedAccount(t, conn, 101, "briar@example.com", false, created)

	ents, err := svc.Resolve(context.Background(), domain.ResolveRequest{UserID: "101"})
	require.NoError(t, err)

	assert.Equal(t, domain.TierFree, ents.Tier)
	require.NotNil(t, resolver.lastReq.FallbackStart)
	assert.True(t, resolver.lastReq.FallbackStart.Equal(created))
	assert.Equal(t, "briar@example.com", resolver.lastReq.Email)
}

func TestResolveUnknownAccountStillEvaluates(t *testing.T) {
	resolver := &stubResolver{decision: subscriptiondomain.Decision{
		IsPaidSubscriber: true,
		MatchPath:        subscriptiondomain.MatchPathLegacyEmail,
	}}
	svc, _ := newTestService(t, resolver)

	ents, err := svc.Resolve(context.Background(), domain.ResolveRequest{Email: "Stranger@Example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.TierPremium, ents.Tier)
	assert.Nil(t, resolver.lastReq.FallbackStart)
	assert.Equal(t, "stranger@example.com", resolver.lastReq.Email)
}

func TestResolveGrandfatheredFreeAccount(t *testing.T) {
	svc, conn := newTestService(t, &stubResolver{})
	seedAccount(t, conn, 102, "old-timer@example.com", true, time.Now().UTC())

	ents, err := svc.Resolve(context.Background(), domain.ResolveRequest{Email: "old-timer@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.TierFree, ents.Tier)
	assert.True(t, ents.Limits.Pipes.IsUnlimited())
}

func TestResolveInvalidUserID(t *testing.T) {
	svc, _ := newTestService(t, &stubResolver{})

	_, err := svc.Resolve(context.Background(), domain.ResolveRequest{UserID: "not-a-snowflake"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidUserID)
}

func TestCheckDeniedFeature(t *testing.T) {
	resolver := &stubResolver{decision: subscriptiondomain.Decision{MatchPath: subscriptiondomain.MatchPathNone}}
	svc, _ := newTestService(t, resolver)

	resp, err := svc.Check(context.Background(), domain.CheckRequest{
		ResolveRequest: domain.ResolveRequest{Email: "free@example.com"},
		Feature:        domain.FeatureAIIdentify,
	})
	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, domain.TierFree, resp.Tier)
}

func TestRequireUpgrade(t *testing.T) {
	resolver := &stubResolver{decision: subscriptiondomain.Decision{MatchPath: subscriptiondomain.MatchPathNone}}
	svc, _ := newTestService(t, resolver)

	_, err := svc.Require(context.Background(), domain.ResolveRequest{Email: "free@example.com"}, domain.FeatureMessaging)
	assert.ErrorIs(t, err, domain.ErrUpgradeRequired)

	ents, err := svc.Require(context.Background(), domain.ResolveRequest{Email: "free@example.com"}, domain.FeatureSearch)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, ents.Tier)
}
