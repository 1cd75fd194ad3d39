package repository

import (
	"context"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
	"github.com/briarworks/briarkeep/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const recordColumns = `id, user_id, user_email, provider, provider_subscription_id, status,
	 plan_tier, started_at, current_period_start, metadata, created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *subscriptiondomain.SubscriptionRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_records (
			id, user_id, user_email, provider, provider_subscription_id, status,
			plan_tier, started_at, current_period_start, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.UserEmail,
		record.Provider,
		record.ProviderSubscriptionID,
		record.Status,
		record.PlanTier,
		record.StartedAt,
		record.CurrentPeriodStart,
		record.Metadata,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, record *subscriptiondomain.SubscriptionRecord) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_records
		 SET user_id = ?, user_email = ?, status = ?, plan_tier = ?, started_at = ?,
		     current_period_start = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		record.UserID,
		record.UserEmail,
		record.Status,
		record.PlanTier,
		record.StartedAt,
		record.CurrentPeriodStart,
		record.Metadata,
		record.UpdatedAt,
		record.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.SubscriptionRecord, error) {
	var record subscriptiondomain.SubscriptionRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` FROM subscription_records WHERE id = ?`,
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) FindByProviderSubscriptionID(ctx context.Context, db *gorm.DB, provider subscriptiondomain.Provider, providerSubscriptionID string) (*subscriptiondomain.SubscriptionRecord, error) {
	var record subscriptiondomain.SubscriptionRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` FROM subscription_records
		 WHERE provider = ? AND provider_subscription_id = ?
		 LIMIT 1`,
		provider,
		providerSubscriptionID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) FindQualifyingByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID, statuses []subscriptiondomain.Status) ([]subscriptiondomain.SubscriptionRecord, error) {
	var records []subscriptiondomain.SubscriptionRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` FROM subscription_records
		 WHERE user_id = ? AND status IN ?`,
		userID,
		statuses,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) FindQualifyingByEmail(ctx context.Context, db *gorm.DB, email string, provider subscriptiondomain.Provider, statuses []subscriptiondomain.Status) ([]subscriptiondomain.SubscriptionRecord, error) {
	var records []subscriptiondomain.SubscriptionRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` FROM subscription_records
		 WHERE user_email = ? AND provider = ? AND status IN ?`,
		email,
		provider,
		statuses,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter subscriptiondomain.ListFilter) ([]subscriptiondomain.SubscriptionRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	stmt := db.WithContext(ctx).Model(&subscriptiondomain.SubscriptionRecord{})
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.Email != "" {
		stmt = stmt.Where("user_email = ?", filter.Email)
	}
	if filter.Provider != "" {
		stmt = stmt.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Cursor != nil {
		cursorID, err := snowflake.ParseString(filter.Cursor.ID)
		if err != nil {
			return nil, pagination.ErrInvalidToken
		}
		stmt = stmt.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, cursorID,
		)
	}

	var records []subscriptiondomain.SubscriptionRecord
	err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
