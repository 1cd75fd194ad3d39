package repository

import (
	"context"
	"errors"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *accountdomain.Account) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := db.WithContext(ctx).
		Where("email = ?", accountdomain.NormalizeEmail(email)).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) SetFreeGrandfathered(ctx context.Context, db *gorm.DB, id snowflake.ID, grandfathered bool) error {
	return db.WithContext(ctx).
		Model(&accountdomain.Account{}).
		Where("id = ?", id).
		Update("free_grandfathered", grandfathered).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]accountdomain.Account, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var accounts []accountdomain.Account
	err := db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
