// Package domain models the two tracked collections, pipes and tobacco
// blends, whose growth is capped by the owner's entitlement limits.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Pipe struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	AccountID snowflake.ID      `gorm:"not null;index:ix_pipes_account_id" json:"account_id,string"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Maker     string            `gorm:"type:text" json:"maker,omitempty"`
	Shape     string            `gorm:"type:text" json:"shape,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Pipe) TableName() string { return "pipes" }

type Blend struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id,string"`
	AccountID snowflake.ID      `gorm:"not null;index:ix_blends_account_id" json:"account_id,string"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Blender   string            `gorm:"type:text" json:"blender,omitempty"`
	BlendType string            `gorm:"type:text" json:"blend_type,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Blend) TableName() string { return "blends" }

var (
	ErrInvalidAccountID = errors.New("invalid_account_id")
	ErrMissingName      = errors.New("missing_name")
	ErrLimitReached     = errors.New("collection_limit_reached")
	ErrNotFound         = errors.New("item_not_found")
)

type Repository interface {
	InsertPipe(ctx context.Context, db *gorm.DB, pipe *Pipe) error
	InsertBlend(ctx context.Context, db *gorm.DB, blend *Blend) error
	CountPipes(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error)
	CountBlends(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error)
	ListPipes(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]Pipe, error)
	ListBlends(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]Blend, error)
	DeletePipe(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error)
	DeleteBlend(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error)
}
