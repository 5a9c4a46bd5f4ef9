package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ReferralCodeRepository = (*referralCodeRepo)(nil)

type referralCodeRepo struct {
	pool *pgxpool.Pool
}

func NewReferralCodeRepo(pool *pgxpool.Pool) repository.ReferralCodeRepository {
	return &referralCodeRepo{pool: pool}
}

// Save creates or updates a code definition. ON CONFLICT covers both the
// admin create path and edits to duration/active flag; usage_count is never
// overwritten here, only IncrementUsage touches it.
func (r *referralCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO referral_codes (id, code, is_active, duration_months, usage_count, usage_limit, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  is_active = EXCLUDED.is_active,
  duration_months = EXCLUDED.duration_months,
  usage_limit = EXCLUDED.usage_limit;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.IsActive, code.DurationMonths, code.UsageCount, code.UsageLimit, code.CreatedAt,
	)
	return err
}

// FindActiveByCode finds a single active code by its normalized value.
// Inactive codes are filtered here, which makes them indistinguishable
// from nonexistent ones to the caller.
func (r *referralCodeRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	const q = `
SELECT id, code, is_active, duration_months, usage_count, usage_limit, created_at
  FROM referral_codes
 WHERE code = $1 AND is_active = TRUE;
`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}

	var rc model.ReferralCode
	err = row.Scan(
		&rc.ID, &rc.Code, &rc.IsActive, &rc.DurationMonths, &rc.UsageCount, &rc.UsageLimit, &rc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rc, nil
}

// IncrementUsage bumps usage_count atomically at the storage layer so
// concurrent redemptions never lose updates.
func (r *referralCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, codeID string) error {
	const q = `UPDATE referral_codes SET usage_count = usage_count + 1 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *referralCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ReferralCode, error) {
	const q = `
SELECT id, code, is_active, duration_months, usage_count, usage_limit, created_at
  FROM referral_codes
 ORDER BY created_at DESC;
`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ReferralCode
	for rows.Next() {
		var rc model.ReferralCode
		if err := rows.Scan(&rc.ID, &rc.Code, &rc.IsActive, &rc.DurationMonths, &rc.UsageCount, &rc.UsageLimit, &rc.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &rc)
	}
	return out, rows.Err()
}
