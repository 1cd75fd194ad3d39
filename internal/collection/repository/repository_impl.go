package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	collectiondomain "github.com/briarworks/briarkeep/internal/collection/domain"
)

type repo struct{}

func Provide() collectiondomain.Repository {
	return &repo{}
}

func (r *repo) InsertPipe(ctx context.Context, db *gorm.DB, pipe *collectiondomain.Pipe) error {
	return db.WithContext(ctx).Create(pipe).Error
}

func (r *repo) InsertBlend(ctx context.Context, db *gorm.DB, blend *collectiondomain.Blend) error {
	return db.WithContext(ctx).Create(blend).Error
}

func (r *repo) CountPipes(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&collectiondomain.Pipe{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

func (r *repo) CountBlends(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&collectiondomain.Blend{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

func (r *repo) ListPipes(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]collectiondomain.Pipe, error) {
	var pipes []collectiondomain.Pipe
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Limit(limit).
		Find(&pipes).Error
	return pipes, err
}

func (r *repo) ListBlends(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit int) ([]collectiondomain.Blend, error) {
	var blends []collectiondomain.Blend
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Limit(limit).
		Find(&blends).Error
	return blends, err
}

func (r *repo) DeletePipe(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		Delete(&collectiondomain.Pipe{})
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteBlend(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		Delete(&collectiondomain.Blend{})
	return tx.RowsAffected, tx.Error
}
