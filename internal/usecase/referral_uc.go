// File: internal/usecase/referral_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/logging"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/metrics"
)

// ReferralUseCase implements the referral redemption flow: validation,
// single-use enforcement against the ledger, expiry computation, and the
// entitlement side effect.
type ReferralUseCase struct {
	codes  repository.ReferralCodeRepository
	ledger repository.RedemptionRepository
	users  repository.UserRepository
	log    *zerolog.Logger

	grantTier model.MembershipTier
	now       func() time.Time
}

// NewReferralUseCase constructs the use case. Redemptions grant TierPremium
// unless overridden with WithGrantTier.
func NewReferralUseCase(
	codes repository.ReferralCodeRepository,
	ledger repository.RedemptionRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *ReferralUseCase {
	return &ReferralUseCase{
		codes:     codes,
		ledger:    ledger,
		users:     users,
		log:       logger,
		grantTier: model.TierPremium,
		now:       time.Now,
	}
}

// WithGrantTier overrides the tier applied on successful redemption.
func (uc *ReferralUseCase) WithGrantTier(tier model.MembershipTier) *ReferralUseCase {
	uc.grantTier = tier
	return uc
}

// WithClock overrides the time source. Used by tests to pin expiry math.
func (uc *ReferralUseCase) WithClock(now func() time.Time) *ReferralUseCase {
	uc.now = now
	return uc
}

// Redeem runs the ordered redemption sequence for rawCode on behalf of
// userID. The steps are preconditions for one another and must not be
// reordered: no side effect may occur once an earlier check has failed.
//
// The ledger insert is the durability boundary. If the usage-counter
// increment or the entitlement update fails after the insert committed,
// the redemption stands and the failure is reported as a warning on the
// result instead of an error.
func (uc *ReferralUseCase) Redeem(ctx context.Context, rawCode, userID string) (*model.RedemptionResult, error) {
	defer logging.TraceDuration(uc.log, "ReferralUC.Redeem")()

	code := model.NormalizeCode(rawCode)
	if code == "" {
		metrics.IncRedemption(metrics.OutcomeEmptyCode)
		return nil, domain.ErrEmptyCode
	}

	if userID == "" {
		metrics.IncRedemption(metrics.OutcomeUnauthenticated)
		return nil, domain.ErrUnauthenticated
	}
	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			metrics.IncRedemption(metrics.OutcomeUnauthenticated)
			return nil, domain.ErrUnauthenticated
		}
		return nil, uc.storageErr("resolve user", err)
	}

	rc, err := uc.codes.FindActiveByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Inactive codes are filtered out by the lookup, so they are
			// reported exactly like nonexistent ones.
			metrics.IncRedemption(metrics.OutcomeInvalidCode)
			return nil, domain.ErrInvalidCode
		}
		return nil, uc.storageErr("lookup code", err)
	}

	if rc.Exhausted() {
		metrics.IncRedemption(metrics.OutcomeExhausted)
		return nil, domain.ErrCodeExhausted
	}

	// Advisory pre-check. The unique constraint behind Insert is the
	// authoritative single-use guard; this only gives a cheaper rejection.
	if _, err := uc.ledger.Find(ctx, repository.NoTX, rc.ID, user.ID); err == nil {
		metrics.IncRedemption(metrics.OutcomeAlreadyRedeemed)
		return nil, domain.ErrAlreadyRedeemed
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, uc.storageErr("pre-check ledger", err)
	}

	now := uc.now()
	rec := &model.RedemptionRecord{
		ID:             newLedgerID(now),
		ReferralCodeID: rc.ID,
		UserID:         user.ID,
		AppliedAt:      now,
		ExpiresAt:      model.AddMonthsClamped(now, rc.DurationMonths),
	}
	if err := uc.ledger.Insert(ctx, repository.NoTX, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyRedeemed) {
			// Lost the race against a concurrent attempt by the same user.
			metrics.IncRedemption(metrics.OutcomeAlreadyRedeemed)
			return nil, domain.ErrAlreadyRedeemed
		}
		return nil, uc.storageErr("insert ledger record", err)
	}

	res := &model.RedemptionResult{
		DurationMonths: rc.DurationMonths,
		ExpiresAt:      rec.ExpiresAt,
	}

	// Post-commit side effects: best effort, never rolled back.
	if err := uc.codes.IncrementUsage(ctx, repository.NoTX, rc.ID); err != nil {
		uc.log.Warn().Err(err).Str("code_id", rc.ID).Msg("usage counter increment failed after redemption commit")
		res.Warnings = append(res.Warnings, "usage counter update pending")
	}
	if err := uc.users.ApplyEntitlement(ctx, repository.NoTX, user.ID, uc.grantTier, model.StatusActive); err != nil {
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("entitlement update failed after redemption commit")
		res.Warnings = append(res.Warnings, "membership upgrade pending")
	}

	if res.Degraded() {
		metrics.IncRedemption(metrics.OutcomeDegraded)
	} else {
		metrics.IncRedemption(metrics.OutcomeSuccess)
	}
	metrics.ObserveGrantedMonths(rc.DurationMonths)

	uc.log.Info().
		Str("code", rc.Code).
		Str("user_id", user.ID).
		Time("expires_at", rec.ExpiresAt).
		Int("warnings", len(res.Warnings)).
		Msg("referral code redeemed")
	return res, nil
}

func (uc *ReferralUseCase) storageErr(op string, err error) error {
	metrics.IncRedemption(metrics.OutcomeStorageError)
	uc.log.Error().Err(err).Str("op", op).Msg("redemption storage failure")
	return domain.ErrStorage
}
