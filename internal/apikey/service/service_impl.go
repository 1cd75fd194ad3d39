package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/briarworks/briarkeep/internal/apikey/domain"
	"github.com/briarworks/briarkeep/internal/clock"
)

const (
	apiKeyPrefix      = "bk_live_"
	apiKeySecretBytes = 32
)

var knownScopes = map[string]struct{}{
	apikeydomain.ScopeEntitlementsRead:   {},
	apikeydomain.ScopeSubscriptionsWrite: {},
	apikeydomain.ScopeAccountsWrite:      {},
	apikeydomain.ScopeCollectionsWrite:   {},
	apikeydomain.ScopeAdmin:              {},
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  apikeydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  apikeydomain.Repository
}

func New(p Params) apikeydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req apikeydomain.CreateRequest) (*apikeydomain.SecretResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}
	if len(req.Scopes) == 0 {
		return nil, apikeydomain.ErrInvalidScopes
	}
	for _, scope := range req.Scopes {
		if _, ok := knownScopes[scope]; !ok {
			return nil, apikeydomain.ErrInvalidScopes
		}
	}

	plain, err := generateSecret()
	if err != nil {
		return nil, err
	}

	key := &apikeydomain.APIKey{
		ID:        s.genID.Generate(),
		Name:      name,
		KeyHash:   apikeydomain.HashAPIKey(plain),
		Scopes:    req.Scopes,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, err
	}

	s.log.Info("api key created",
		zap.String("key_id", key.ID.String()),
		zap.Strings("scopes", req.Scopes),
	)
	return &apikeydomain.SecretResponse{
		ID:     key.ID.String(),
		Name:   key.Name,
		APIKey: plain,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]apikeydomain.Response, error) {
	keys, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]apikeydomain.Response, 0, len(keys))
	for i := range keys {
		key := &keys[i]
		resp = append(resp, apikeydomain.Response{
			ID:         key.ID.String(),
			Name:       key.Name,
			Scopes:     key.Scopes,
			IsActive:   key.IsActive,
			ExpiresAt:  key.ExpiresAt,
			LastUsedAt: key.LastUsedAt,
			CreatedAt:  key.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) Revoke(ctx context.Context, id string) error {
	keyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return apikeydomain.ErrKeyNotFound
	}
	if err := s.repo.SetActive(ctx, s.db, int64(keyID), false); err != nil {
		return err
	}
	s.log.Info("api key revoked", zap.String("key_id", keyID.String()))
	return nil
}

func (s *Service) Authenticate(ctx context.Context, raw string) (*apikeydomain.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apikeydomain.ErrKeyNotFound
	}

	hash := apikeydomain.HashAPIKey(raw)
	key, err := s.repo.FindByHash(ctx, s.db, hash)
	if err != nil {
		return nil, err
	}
	if key == nil || subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return nil, apikeydomain.ErrKeyNotFound
	}
	if !key.IsActive {
		return nil, apikeydomain.ErrKeyRevoked
	}
	now := s.clock.Now()
	if key.ExpiresAt != nil && key.ExpiresAt.Before(now) {
		return nil, apikeydomain.ErrKeyExpired
	}

	// Best effort; auth must not fail on a bookkeeping write.
	if err := s.repo.TouchLastUsed(ctx, s.db, int64(key.ID), now); err != nil {
		s.log.Warn("api key last_used update failed", zap.Error(err))
	}
	return key, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}
