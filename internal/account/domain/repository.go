package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)
	SetFreeGrandfathered(ctx context.Context, db *gorm.DB, id snowflake.ID, grandfathered bool) error
	List(ctx context.Context, db *gorm.DB, limit int) ([]Account, error)
}
