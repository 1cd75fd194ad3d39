package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	"github.com/briarworks/briarkeep/internal/config"
	"github.com/briarworks/briarkeep/internal/entitlement/domain"
	"github.com/briarworks/briarkeep/internal/observability/metrics"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Policy        *config.PolicyHolder
	Accounts      accountdomain.Repository
	Subscriptions subscriptiondomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	policy        *config.PolicyHolder
	accounts      accountdomain.Repository
	subscriptions subscriptiondomain.Service
	metrics       *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("entitlement.service"),
		policy:        p.Policy,
		accounts:      p.Accounts,
		subscriptions: p.Subscriptions,
		metrics:       p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Entitlements, error) {
	email := accountdomain.NormalizeEmail(req.Email)
	if req.UserID == "" && email == "" {
		return domain.Entitlements{}, domain.ErrUnauthenticated
	}

	account, err := s.findAccount(ctx, req.UserID, email)
	if err != nil {
		return domain.Entitlements{}, err
	}

	resolveReq := subscriptiondomain.ResolveRequest{
		UserID: req.UserID,
		Email:  email,
	}
	if account != nil {
		if email == "" {
			resolveReq.Email = accountdomain.NormalizeEmail(account.Email)
		}
		created := account.CreatedAt
		resolveReq.FallbackStart = &created
	}

	decision, err := s.subscriptions.Resolve(ctx, resolveReq)
	if err != nil {
		return domain.Entitlements{}, err
	}

	freeGrandfathered := account != nil && account.FreeGrandfathered
	snapshot := s.policy.Current()
	ents := domain.Evaluate(decision, freeGrandfathered, domain.Policy{
		LegacyCutoff:   snapshot.LegacyCutoff,
		FreePipeLimit:  snapshot.FreePipeLimit,
		FreeBlendLimit: snapshot.FreeBlendLimit,
	})

	s.log.Debug("entitlements resolved",
		zap.String("tier", string(ents.Tier)),
		zap.String("match_path", string(ents.MatchPath)),
		zap.Bool("legacy_bonus", ents.HasLegacyBonus),
	)
	return ents, nil
}

func (s *Service) Check(ctx context.Context, req domain.CheckRequest) (domain.CheckResponse, error) {
	ents, err := s.Resolve(ctx, req.ResolveRequest)
	if err != nil {
		return domain.CheckResponse{}, err
	}

	allowed := ents.CanUse(req.Feature)
	if !allowed {
		s.metrics.RecordFeatureDenial(string(req.Feature))
	}
	return domain.CheckResponse{
		Feature: req.Feature,
		Allowed: allowed,
		Tier:    ents.Tier,
	}, nil
}

func (s *Service) Require(ctx context.Context, req domain.ResolveRequest, feature domain.Feature) (domain.Entitlements, error) {
	ents, err := s.Resolve(ctx, req)
	if err != nil {
		return domain.Entitlements{}, err
	}
	if !ents.CanUse(feature) {
		s.metrics.RecordFeatureDenial(string(feature))
		return domain.Entitlements{}, domain.ErrUpgradeRequired
	}
	return ents, nil
}

// findAccount loads the account backing the request, preferring the id. A
// missing account is not an error: callers may hold identities provisioned
// before this service existed.
func (s *Service) findAccount(ctx context.Context, userID, email string) (*accountdomain.Account, error) {
	if userID != "" {
		id, err := snowflake.ParseString(userID)
		if err != nil {
			return nil, subscriptiondomain.ErrInvalidUserID
		}
		account, err := s.accounts.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}
	if email == "" {
		return nil, nil
	}
	return s.accounts.FindByEmail(ctx, s.db, email)
}
