package domain

import "context"

type AddPipeRequest struct {
	AccountID string         `json:"account_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Maker     string         `json:"maker,omitempty"`
	Shape     string         `json:"shape,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AddBlendRequest struct {
	AccountID string         `json:"account_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Blender   string         `json:"blender,omitempty"`
	BlendType string         `json:"blend_type,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Service interface {
	// AddPipe inserts a pipe after checking the owner's pipe limit.
	AddPipe(ctx context.Context, req AddPipeRequest) (*Pipe, error)

	// AddBlend inserts a blend after checking the owner's blend limit.
	AddBlend(ctx context.Context, req AddBlendRequest) (*Blend, error)

	ListPipes(ctx context.Context, accountID string, limit int) ([]Pipe, error)
	ListBlends(ctx context.Context, accountID string, limit int) ([]Blend, error)
	RemovePipe(ctx context.Context, accountID, id string) error
	RemoveBlend(ctx context.Context, accountID, id string) error
}
