package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/briarworks/briarkeep/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *SubscriptionRecord) error
	Update(ctx context.Context, db *gorm.DB, record *SubscriptionRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SubscriptionRecord, error)
	FindByProviderSubscriptionID(ctx context.Context, db *gorm.DB, provider Provider, providerSubscriptionID string) (*SubscriptionRecord, error)
	FindQualifyingByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID, statuses []Status) ([]SubscriptionRecord, error)
	FindQualifyingByEmail(ctx context.Context, db *gorm.DB, email string, provider Provider, statuses []Status) ([]SubscriptionRecord, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]SubscriptionRecord, error)
}

type ListFilter struct {
	UserID   *snowflake.ID
	Email    string
	Provider Provider
	Status   Status
	Limit    int
	Cursor   *pagination.Cursor
}
