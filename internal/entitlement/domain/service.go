package domain

import "context"

// ResolveRequest identifies the user whose entitlements are wanted. UserID is
// the string form of the account snowflake; either field may be empty but not
// both.
type ResolveRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CheckRequest asks whether one feature is usable by the identified user.
type CheckRequest struct {
	ResolveRequest
	Feature Feature `json:"feature"`
}

type CheckResponse struct {
	Feature Feature `json:"feature"`
	Allowed bool    `json:"allowed"`
	Tier    Tier    `json:"tier"`
}

type Service interface {
	// Resolve evaluates the full entitlement set for a user.
	Resolve(ctx context.Context, req ResolveRequest) (Entitlements, error)

	// Check evaluates a single feature gate. A denied feature is a normal
	// response, not an error.
	Check(ctx context.Context, req CheckRequest) (CheckResponse, error)

	// Require is Check for enforcement paths: denial returns
	// ErrUpgradeRequired instead of a response.
	Require(ctx context.Context, req ResolveRequest, feature Feature) (Entitlements, error)
}
