package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
)

// CodeUseCase manages referral code definitions (admin surface).
type CodeUseCase struct {
	codes  repository.ReferralCodeRepository
	ledger repository.RedemptionRepository
	log    *zerolog.Logger
}

// NewCodeUseCase constructs a CodeUseCase.
func NewCodeUseCase(codes repository.ReferralCodeRepository, ledger repository.RedemptionRepository, logger *zerolog.Logger) *CodeUseCase {
	return &CodeUseCase{codes: codes, ledger: ledger, log: logger}
}

// Create registers a new referral code. When rawCode is empty a random
// XXXX-XXXX-XXXX code is generated. durationMonths must be positive and
// usageLimit, when set, must be positive.
func (uc *CodeUseCase) Create(ctx context.Context, rawCode string, durationMonths int, usageLimit *int, isActive bool) (*model.ReferralCode, error) {
	if durationMonths <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if usageLimit != nil && *usageLimit <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	code := model.NormalizeCode(rawCode)
	if code == "" {
		generated, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		code = generated
	}

	rc := &model.ReferralCode{
		ID:             uuid.NewString(),
		Code:           code,
		IsActive:       isActive,
		DurationMonths: durationMonths,
		UsageLimit:     usageLimit,
	}
	if err := uc.codes.Save(ctx, repository.NoTX, rc); err != nil {
		uc.log.Error().Err(err).Str("code", code).Msg("failed to save referral code")
		return nil, err
	}
	uc.log.Info().Str("code", rc.Code).Int("duration_months", rc.DurationMonths).Msg("referral code created")
	return rc, nil
}

// List returns all code definitions, newest first.
func (uc *CodeUseCase) List(ctx context.Context) ([]*model.ReferralCode, error) {
	return uc.codes.ListAll(ctx, repository.NoTX)
}

// Redemptions reports how many ledger entries reference the given code.
// Used by admin tooling to reconcile usage_count against the ledger.
func (uc *CodeUseCase) Redemptions(ctx context.Context, codeID string) (int, error) {
	return uc.ledger.CountByCode(ctx, repository.NoTX, codeID)
}
