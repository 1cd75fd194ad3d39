package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/briarworks/briarkeep/internal/clock"
	collectiondomain "github.com/briarworks/briarkeep/internal/collection/domain"
	entitlementdomain "github.com/briarworks/briarkeep/internal/entitlement/domain"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         collectiondomain.Repository
	Entitlements entitlementdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         collectiondomain.Repository
	entitlements entitlementdomain.Service
}

func NewService(p ServiceParam) collectiondomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("collection.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		entitlements: p.Entitlements,
	}
}

func (s *Service) AddPipe(ctx context.Context, req collectiondomain.AddPipeRequest) (*collectiondomain.Pipe, error) {
	accountID, err := parseAccountID(req.AccountID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, collectiondomain.ErrMissingName
	}

	if err := s.checkLimit(ctx, req.AccountID, req.Email, accountID, pipeKind); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pipe := &collectiondomain.Pipe{
		ID:        s.genID.Generate(),
		AccountID: accountID,
		Name:      strings.TrimSpace(req.Name),
		Maker:     strings.TrimSpace(req.Maker),
		Shape:     strings.TrimSpace(req.Shape),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPipe(ctx, s.db, pipe); err != nil {
		return nil, err
	}

	s.log.Info("pipe added",
		zap.String("account_id", accountID.String()),
		zap.String("pipe_id", pipe.ID.String()),
	)
	return pipe, nil
}

func (s *Service) AddBlend(ctx context.Context, req collectiondomain.AddBlendRequest) (*collectiondomain.Blend, error) {
	accountID, err := parseAccountID(req.AccountID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, collectiondomain.ErrMissingName
	}

	if err := s.checkLimit(ctx, req.AccountID, req.Email, accountID, blendKind); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	blend := &collectiondomain.Blend{
		ID:        s.genID.Generate(),
		AccountID: accountID,
		Name:      strings.TrimSpace(req.Name),
		Blender:   strings.TrimSpace(req.Blender),
		BlendType: strings.TrimSpace(req.BlendType),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertBlend(ctx, s.db, blend); err != nil {
		return nil, err
	}

	s.log.Info("blend added",
		zap.String("account_id", accountID.String()),
		zap.String("blend_id", blend.ID.String()),
	)
	return blend, nil
}

func (s *Service) ListPipes(ctx context.Context, accountID string, limit int) ([]collectiondomain.Pipe, error) {
	id, err := parseAccountID(accountID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPipes(ctx, s.db, id, normalizeLimit(limit))
}

func (s *Service) ListBlends(ctx context.Context, accountID string, limit int) ([]collectiondomain.Blend, error) {
	id, err := parseAccountID(accountID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBlends(ctx, s.db, id, normalizeLimit(limit))
}

func (s *Service) RemovePipe(ctx context.Context, accountID, id string) error {
	owner, err := parseAccountID(accountID)
	if err != nil {
		return err
	}
	pipeID, err := snowflake.ParseString(id)
	if err != nil {
		return collectiondomain.ErrNotFound
	}
	affected, err := s.repo.DeletePipe(ctx, s.db, owner, pipeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return collectiondomain.ErrNotFound
	}
	return nil
}

func (s *Service) RemoveBlend(ctx context.Context, accountID, id string) error {
	owner, err := parseAccountID(accountID)
	if err != nil {
		return err
	}
	blendID, err := snowflake.ParseString(id)
	if err != nil {
		return collectiondomain.ErrNotFound
	}
	affected, err := s.repo.DeleteBlend(ctx, s.db, owner, blendID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return collectiondomain.ErrNotFound
	}
	return nil
}

type itemKind int

const (
	pipeKind itemKind = iota
	blendKind
)

// checkLimit resolves the owner's entitlements and rejects the insert when
// the relevant collection is already at its cap. Unlimited owners skip the
// count query.
func (s *Service) checkLimit(ctx context.Context, rawAccountID, email string, accountID snowflake.ID, kind itemKind) error {
	ents, err := s.entitlements.Resolve(ctx, entitlementdomain.ResolveRequest{
		UserID: rawAccountID,
		Email:  email,
	})
	if err != nil {
		return err
	}

	limit := ents.Limits.Pipes
	if kind == blendKind {
		limit = ents.Limits.Blends
	}
	if limit.IsUnlimited() {
		return nil
	}

	var count int64
	if kind == pipeKind {
		count, err = s.repo.CountPipes(ctx, s.db, accountID)
	} else {
		count, err = s.repo.CountBlends(ctx, s.db, accountID)
	}
	if err != nil {
		return err
	}
	if !limit.Allows(int(count)) {
		return collectiondomain.ErrLimitReached
	}
	return nil
}

func parseAccountID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, collectiondomain.ErrInvalidAccountID
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, collectiondomain.ErrInvalidAccountID
	}
	return id, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 250 {
		return 50
	}
	return limit
}
