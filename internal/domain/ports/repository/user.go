package repository

import (
	"context"

	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
)

// UserRepository is the port for account lookup and the entitlement
// side effect of a redemption.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// ApplyEntitlement sets the membership tier and status on the account.
	// It updates only those two columns and never reads them first.
	ApplyEntitlement(ctx context.Context, tx Tx, userID string, tier model.MembershipTier, status model.AccountStatus) error
}
