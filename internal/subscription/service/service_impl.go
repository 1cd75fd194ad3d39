package service

import (
	"context"
	"time"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	"github.com/briarworks/briarkeep/internal/cache"
	"github.com/briarworks/briarkeep/internal/clock"
	obsmetrics "github.com/briarworks/briarkeep/internal/observability/metrics"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
	"github.com/briarworks/briarkeep/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository

	decisions cache.DecisionCache
	metrics   *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      subscriptiondomain.Repository
	Decisions cache.DecisionCache
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		decisions: p.Decisions,
		metrics:   p.Metrics,
	}
}

// Resolve walks the lookup cascade and derives the subscription decision.
// User-id-linked records win over legacy email-linked Stripe records; Apple
// records are never matched by email. Finding nothing is the free-tier
// outcome, not an error; store failures always propagate so a transient
// outage is never mistaken for "no subscription".
func (s *Service) Resolve(ctx context.Context, req subscriptiondomain.ResolveRequest) (subscriptiondomain.Decision, error) {
	email := accountdomain.NormalizeEmail(req.Email)
	if email == "" {
		return subscriptiondomain.Decision{}, subscriptiondomain.ErrMissingEmail
	}

	if decision, ok := s.decisions.Get(req.UserID, email); ok {
		return decision, nil
	}

	record, path, err := s.lookup(ctx, req.UserID, email)
	if err != nil {
		return subscriptiondomain.Decision{}, err
	}

	decision := s.derive(record, path, req.FallbackStart)
	s.decisions.Set(req.UserID, email, decision)
	s.metrics.RecordResolution(string(path))
	s.log.Debug("subscription resolved",
		zap.String("match_path", string(path)),
		zap.Bool("paid", decision.IsPaidSubscriber),
		zap.Bool("pro", decision.IsProSubscriber),
	)
	return decision, nil
}

func (s *Service) lookup(ctx context.Context, rawUserID, email string) (*subscriptiondomain.SubscriptionRecord, subscriptiondomain.MatchPath, error) {
	statuses := subscriptiondomain.QualifyingStatuses()

	if rawUserID != "" {
		userID, err := snowflake.ParseString(rawUserID)
		if err != nil {
			return nil, "", subscriptiondomain.ErrInvalidUserID
		}
		candidates, err := s.repo.FindQualifyingByUserID(ctx, s.db, userID, statuses)
		if err != nil {
			return nil, "", err
		}
		if record := subscriptiondomain.SelectAuthoritative(candidates); record != nil {
			return record, subscriptiondomain.MatchPathUserID, nil
		}
	}

	// Legacy path: records created before user-id linkage existed are keyed
	// by email and only ever Stripe.
	candidates, err := s.repo.FindQualifyingByEmail(ctx, s.db, email, subscriptiondomain.ProviderStripe, statuses)
	if err != nil {
		return nil, "", err
	}
	if record := subscriptiondomain.SelectAuthoritative(candidates); record != nil {
		return record, subscriptiondomain.MatchPathLegacyEmail, nil
	}

	return nil, subscriptiondomain.MatchPathNone, nil
}

func (s *Service) derive(record *subscriptiondomain.SubscriptionRecord, path subscriptiondomain.MatchPath, fallbackStart *time.Time) subscriptiondomain.Decision {
	if record == nil {
		return subscriptiondomain.Decision{
			MatchPath:      subscriptiondomain.MatchPathNone,
			EffectiveStart: nil,
		}
	}

	effectiveStart := record.StartedAt
	if effectiveStart == nil {
		effectiveStart = record.CurrentPeriodStart
	}
	if effectiveStart == nil {
		effectiveStart = fallbackStart
	}

	return subscriptiondomain.Decision{
		IsPaidSubscriber: true,
		IsProSubscriber:  record.PlanTier == subscriptiondomain.PlanTierPro,
		EffectiveStart:   effectiveStart,
		MatchPath:        path,
	}
}

// Upsert records a provider-side subscription change pushed by the
// billing-sync process, keyed by (provider, provider subscription id).
func (s *Service) Upsert(ctx context.Context, req subscriptiondomain.UpsertRequest) (*subscriptiondomain.RecordResponse, error) {
	email := accountdomain.NormalizeEmail(req.UserEmail)
	if email == "" {
		return nil, subscriptiondomain.ErrMissingEmail
	}
	if !req.Provider.Valid() {
		return nil, subscriptiondomain.ErrInvalidProvider
	}
	if req.ProviderSubscriptionID == "" {
		return nil, subscriptiondomain.ErrMissingProviderID
	}
	if !req.Status.Valid() {
		return nil, subscriptiondomain.ErrInvalidStatus
	}
	if !req.PlanTier.Valid() {
		return nil, subscriptiondomain.ErrInvalidPlanTier
	}

	var userID *snowflake.ID
	if req.UserID != "" {
		parsed, err := snowflake.ParseString(req.UserID)
		if err != nil {
			return nil, subscriptiondomain.ErrInvalidUserID
		}
		userID = &parsed
	}

	now := s.clock.Now()
	existing, err := s.repo.FindByProviderSubscriptionID(ctx, s.db, req.Provider, req.ProviderSubscriptionID)
	if err != nil {
		return nil, err
	}

	var record *subscriptiondomain.SubscriptionRecord
	if existing != nil {
		existing.UserID = userID
		existing.UserEmail = email
		existing.Status = req.Status
		existing.PlanTier = req.PlanTier
		existing.StartedAt = req.StartedAt
		existing.CurrentPeriodStart = req.CurrentPeriodStart
		existing.Metadata = datatypes.JSONMap(req.Metadata)
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		record = existing
	} else {
		record = &subscriptiondomain.SubscriptionRecord{
			ID:                     s.genID.Generate(),
			UserID:                 userID,
			UserEmail:              email,
			Provider:               req.Provider,
			ProviderSubscriptionID: req.ProviderSubscriptionID,
			Status:                 req.Status,
			PlanTier:               req.PlanTier,
			StartedAt:              req.StartedAt,
			CurrentPeriodStart:     req.CurrentPeriodStart,
			Metadata:               datatypes.JSONMap(req.Metadata),
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.repo.Insert(ctx, s.db, record); err != nil {
			return nil, err
		}
	}

	s.decisions.Invalidate(req.UserID, email)
	if req.UserID == "" && userID != nil {
		s.decisions.Invalidate(userID.String(), email)
	}

	s.log.Info("subscription record upserted",
		zap.String("record_id", record.ID.String()),
		zap.String("provider", string(record.Provider)),
		zap.String("status", string(record.Status)),
	)
	return toRecordResponse(record), nil
}

func (s *Service) List(ctx context.Context, req subscriptiondomain.ListRequest) (*subscriptiondomain.ListResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	filter := subscriptiondomain.ListFilter{
		Email:    accountdomain.NormalizeEmail(req.Email),
		Provider: subscriptiondomain.Provider(req.Provider),
		Status:   subscriptiondomain.Status(req.Status),
		Limit:    limit + 1,
	}
	if req.UserID != "" {
		userID, err := snowflake.ParseString(req.UserID)
		if err != nil {
			return nil, subscriptiondomain.ErrInvalidUserID
		}
		filter.UserID = &userID
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, err
		}
		filter.Cursor = cursor
	}

	records, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	records, page := pagination.Trim(records, limit, func(r subscriptiondomain.SubscriptionRecord) pagination.Cursor {
		return pagination.Cursor{ID: r.ID.String(), CreatedAt: r.CreatedAt}
	})

	responses := make([]subscriptiondomain.RecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, *toRecordResponse(&records[i]))
	}
	return &subscriptiondomain.ListResponse{
		Records:       responses,
		NextPageToken: page.NextPageToken,
		HasMore:       page.HasMore,
	}, nil
}

func toRecordResponse(record *subscriptiondomain.SubscriptionRecord) *subscriptiondomain.RecordResponse {
	resp := &subscriptiondomain.RecordResponse{
		ID:                     record.ID.String(),
		UserEmail:              record.UserEmail,
		Provider:               record.Provider,
		ProviderSubscriptionID: record.ProviderSubscriptionID,
		Status:                 record.Status,
		PlanTier:               record.PlanTier,
		StartedAt:              record.StartedAt,
		CurrentPeriodStart:     record.CurrentPeriodStart,
		Metadata:               map[string]any(record.Metadata),
		CreatedAt:              record.CreatedAt,
		UpdatedAt:              record.UpdatedAt,
	}
	if record.UserID != nil {
		id := record.UserID.String()
		resp.UserID = &id
	}
	return resp
}
