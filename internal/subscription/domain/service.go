package domain

import (
	"context"
	"errors"
	"time"
)

// MatchPath records which branch of the lookup cascade produced a decision.
type MatchPath string

const (
	MatchPathUserID      MatchPath = "user_id"
	MatchPathLegacyEmail MatchPath = "legacy_email"
	MatchPathNone        MatchPath = "none"
)

// ResolveRequest identifies the user whose subscription should be resolved.
// Email is required; UserID takes lookup priority when present. FallbackStart
// is the account creation time, used as the last resort for the effective
// subscription start.
type ResolveRequest struct {
	UserID        string
	Email         string
	FallbackStart *time.Time
}

// Decision is the resolver's output: whether the user pays, at which tier,
// and when the subscription effectively started.
type Decision struct {
	IsPaidSubscriber bool       `json:"is_paid_subscriber"`
	IsProSubscriber  bool       `json:"is_pro_subscriber"`
	EffectiveStart   *time.Time `json:"effective_start,omitempty"`
	MatchPath        MatchPath  `json:"match_path"`
}

type UpsertRequest struct {
	UserID                 string         `json:"user_id,omitempty"`
	UserEmail              string         `json:"user_email"`
	Provider               Provider       `json:"provider"`
	ProviderSubscriptionID string         `json:"provider_subscription_id"`
	Status                 Status         `json:"status"`
	PlanTier               PlanTier       `json:"plan_tier"`
	StartedAt              *time.Time     `json:"started_at,omitempty"`
	CurrentPeriodStart     *time.Time     `json:"current_period_start,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
}

type ListRequest struct {
	UserID    string
	Email     string
	Provider  string
	Status    string
	Limit     int
	PageToken string
}

type ListResponse struct {
	Records       []RecordResponse `json:"records"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	HasMore       bool             `json:"has_more"`
}

type RecordResponse struct {
	ID                     string         `json:"id"`
	UserID                 *string        `json:"user_id,omitempty"`
	UserEmail              string         `json:"user_email"`
	Provider               Provider       `json:"provider"`
	ProviderSubscriptionID string         `json:"provider_subscription_id"`
	Status                 Status         `json:"status"`
	PlanTier               PlanTier       `json:"plan_tier"`
	StartedAt              *time.Time     `json:"started_at,omitempty"`
	CurrentPeriodStart     *time.Time     `json:"current_period_start,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Resolve(ctx context.Context, req ResolveRequest) (Decision, error)
	Upsert(ctx context.Context, req UpsertRequest) (*RecordResponse, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

var (
	ErrMissingEmail      = errors.New("missing_email")
	ErrInvalidUserID     = errors.New("invalid_user_id")
	ErrInvalidProvider   = errors.New("invalid_provider")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidPlanTier   = errors.New("invalid_plan_tier")
	ErrMissingProviderID = errors.New("missing_provider_subscription_id")
	ErrRecordNotFound    = errors.New("subscription_record_not_found")
)
