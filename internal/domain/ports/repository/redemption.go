package repository

import (
	"context"

	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
)

// RedemptionRepository is the port for the append-only redemption ledger.
type RedemptionRepository interface {
	// Find returns the ledger entry for (codeID, userID), or
	// domain.ErrNotFound. The redeem flow uses this as an advisory
	// pre-check only; Insert is the authoritative guard.
	Find(ctx context.Context, tx Tx, codeID, userID string) (*model.RedemptionRecord, error)
	// Insert appends a new ledger entry. A unique-constraint violation on
	// (referral_code_id, user_id) is surfaced as domain.ErrAlreadyRedeemed.
	Insert(ctx context.Context, tx Tx, rec *model.RedemptionRecord) error
	// CountByCode reports how many ledger entries reference the code.
	CountByCode(ctx context.Context, tx Tx, codeID string) (int, error)
}
