package model

import "time"

// RedemptionRecord is the append-only ledger entry that proves a user has
// redeemed a code. At most one record may exist per (ReferralCodeID, UserID)
// pair; the storage layer enforces this with a unique constraint, which is
// the authoritative single-use guard.
type RedemptionRecord struct {
	ID             string
	ReferralCodeID string
	UserID         string
	ExpiresAt      time.Time
	AppliedAt      time.Time
}

// RedemptionResult is returned to the caller on a successful redemption.
// Warnings is non-empty when the ledger insert durably committed but a
// follow-up side effect (counter increment, entitlement upgrade) failed;
// the redemption still counts.
type RedemptionResult struct {
	DurationMonths int
	ExpiresAt      time.Time
	Warnings       []string
}

// Degraded reports whether any post-commit side effect is still pending.
func (r *RedemptionResult) Degraded() bool {
	return len(r.Warnings) > 0
}

// AddMonthsClamped adds m calendar months to t, clamping to the last day
// of the target month instead of letting the date normalize forward
// (2024-01-31 + 3 months = 2024-04-30, not 2024-05-01).
func AddMonthsClamped(t time.Time, m int) time.Time {
	y, mo, d := t.Date()
	firstOfTarget := time.Date(y, mo+time.Month(m), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
