package service

import (
	"context"

	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	"github.com/briarworks/briarkeep/internal/clock"
	"github.com/briarworks/briarkeep/pkg/db"
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
	repo  accountdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  accountdomain.Repository
}

func NewService(p ServiceParam) accountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req accountdomain.CreateRequest) (*accountdomain.Response, error) {
	email := accountdomain.NormalizeEmail(req.Email)
	if email == "" {
		return nil, accountdomain.ErrInvalidEmail
	}

	now := s.clock.Now()
	account := &accountdomain.Account{
		ID:                s.genID.Generate(),
		Email:             email,
		FreeGrandfathered: req.FreeGrandfathered,
		Metadata:          datatypes.JSONMap(req.Metadata),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, accountdomain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("account created", zap.String("account_id", account.ID.String()))
	return toResponse(account), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*accountdomain.Response, error) {
	accountID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, accountdomain.ErrInvalidID
	}

	account, err := s.repo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}
	return toResponse(account), nil
}

func (s *Service) List(ctx context.Context, limit int) ([]accountdomain.Response, error) {
	accounts, err := s.repo.List(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]accountdomain.Response, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, *toResponse(&accounts[i]))
	}
	return responses, nil
}

func (s *Service) SetGrandfathered(ctx context.Context, id string, grandfathered bool) (*accountdomain.Response, error) {
	accountID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, accountdomain.ErrInvalidID
	}

	account, err := s.repo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrNotFound
	}

	if account.FreeGrandfathered != grandfathered {
		if err := s.repo.SetFreeGrandfathered(ctx, s.db, accountID, grandfathered); err != nil {
			return nil, err
		}
		account.FreeGrandfathered = grandfathered
		s.log.Info("account grandfathering updated",
			zap.String("account_id", account.ID.String()),
			zap.Bool("grandfathered", grandfathered),
		)
	}
	return toResponse(account), nil
}

func toResponse(account *accountdomain.Account) *accountdomain.Response {
	return &accountdomain.Response{
		ID:                account.ID.String(),
		Email:             account.Email,
		FreeGrandfathered: account.FreeGrandfathered,
		Metadata:          map[string]any(account.Metadata),
		CreatedAt:         account.CreatedAt,
	}
}
