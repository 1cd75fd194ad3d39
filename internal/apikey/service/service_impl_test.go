package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/briarworks/briarkeep/internal/apikey/domain"
	"github.com/briarworks/briarkeep/internal/apikey/repository"
	"github.com/briarworks/briarkeep/internal/clock"
)

func newTestService(t *testing.T) (apikeydomain.Service, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&apikeydomain.APIKey{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	secret, err := svc.Create(ctx, apikeydomain.CreateRequest{
		Name:   "mobile-backend",
		Scopes: []string{apikeydomain.ScopeEntitlementsRead},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret.APIKey, "bk_live_"))

	key, err := svc.Authenticate(ctx, secret.APIKey)
	require.NoError(t, err)
	assert.True(t, key.HasScope(apikeydomain.ScopeEntitlementsRead))
	assert.False(t, key.HasScope(apikeydomain.ScopeSubscriptionsWrite))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, apikeydomain.CreateRequest{Name: " ", Scopes: []string{apikeydomain.ScopeAdmin}})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidName)

	_, err = svc.Create(ctx, apikeydomain.CreateRequest{Name: "k"})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidScopes)

	_, err = svc.Create(ctx, apikeydomain.CreateRequest{Name: "k", Scopes: []string{"made:up"}})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidScopes)
}

func TestAuthenticateUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "bk_live_deadbeef")
	assert.ErrorIs(t, err, apikeydomain.ErrKeyNotFound)

	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, apikeydomain.ErrKeyNotFound)
}

func TestAuthenticateRevokedKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	secret, err := svc.Create(ctx, apikeydomain.CreateRequest{
		Name:   "relay",
		Scopes: []string{apikeydomain.ScopeSubscriptionsWrite},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, secret.ID))

	_, err = svc.Authenticate(ctx, secret.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrKeyRevoked)
}

func TestAuthenticateExpiredKey(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	expires := fake.Now().Add(time.Hour)
	secret, err := svc.Create(ctx, apikeydomain.CreateRequest{
		Name:      "short-lived",
		Scopes:    []string{apikeydomain.ScopeAdmin},
		ExpiresAt: &expires,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, secret.APIKey)
	require.NoError(t, err)

	fake.Advance(2 * time.Hour)
	_, err = svc.Authenticate(ctx, secret.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrKeyExpired)
}

func TestAdminScopeImpliesAll(t *testing.T) {
	key := &apikeydomain.APIKey{Scopes: []string{apikeydomain.ScopeAdmin}}
	assert.True(t, key.HasScope(apikeydomain.ScopeEntitlementsRead))
	assert.True(t, key.HasScope(apikeydomain.ScopeCollectionsWrite))
}
