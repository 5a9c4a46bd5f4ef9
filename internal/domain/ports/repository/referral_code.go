package repository

import (
	"context"

	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
)

// ReferralCodeRepository is the port for the referral code registry.
type ReferralCodeRepository interface {
	// Save creates or updates a code definition. Administrative use only;
	// the redemption flow never calls it.
	Save(ctx context.Context, tx Tx, code *model.ReferralCode) error
	// FindActiveByCode looks up an active code by its normalized value.
	// Inactive and nonexistent codes are both reported as domain.ErrNotFound.
	FindActiveByCode(ctx context.Context, tx Tx, code string) (*model.ReferralCode, error)
	// IncrementUsage bumps usage_count by one as an atomic storage-side
	// update, never read-modify-write in application code.
	IncrementUsage(ctx context.Context, tx Tx, codeID string) error
	// ListAll returns every code definition, newest first.
	ListAll(ctx context.Context, tx Tx) ([]*model.ReferralCode, error)
}
