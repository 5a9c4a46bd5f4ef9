package model

import (
	"strings"
	"time"
)

// ReferralCode is a registry entry that grants a time-boxed membership
// upgrade when redeemed. Codes are stored uppercase and matched
// case-insensitively.
type ReferralCode struct {
	ID             string
	Code           string
	IsActive       bool
	DurationMonths int
	UsageCount     int
	UsageLimit     *int // nil means unlimited
	CreatedAt      time.Time
}

// NormalizeCode trims surrounding whitespace and uppercases the raw code
// exactly as it is stored in the registry. It never fails; an empty result
// must be rejected by the caller before any lookup.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Exhausted reports whether the code has reached its usage ceiling.
// Codes without a limit are never exhausted.
func (c *ReferralCode) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// RemainingUses returns the number of redemptions left, or -1 for
// unlimited codes.
func (c *ReferralCode) RemainingUses() int {
	if c.UsageLimit == nil {
		return -1
	}
	if rem := *c.UsageLimit - c.UsageCount; rem > 0 {
		return rem
	}
	return 0
}
