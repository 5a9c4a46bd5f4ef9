package model

import (
	"time"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"

	"github.com/google/uuid"
)

// MembershipTier is the account tier granted by a subscription or a
// referral redemption.
type MembershipTier string

const (
	TierFree    MembershipTier = "Free"
	TierPro     MembershipTier = "Pro"
	TierPremium MembershipTier = "Premium"
)

// AccountStatus tracks whether the account is usable.
type AccountStatus string

const (
	StatusActive    AccountStatus = "Active"
	StatusSuspended AccountStatus = "Suspended"
)

// User is the account entity. MembershipTier and Status together form the
// entitlement that a successful redemption elevates.
type User struct {
	ID             string
	Email          string
	MembershipTier MembershipTier
	Status         AccountStatus
	RegisteredAt   time.Time
}

func NewUser(id, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:             id,
		Email:          email,
		MembershipTier: TierFree,
		Status:         StatusActive,
		RegisteredAt:   time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
