package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// Ensure implementation satisfies the interface.
var _ repository.RedemptionRepository = (*redemptionRepo)(nil)

type redemptionRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepo(pool *pgxpool.Pool) repository.RedemptionRepository {
	return &redemptionRepo{pool: pool}
}

func (r *redemptionRepo) Find(ctx context.Context, tx repository.Tx, codeID, userID string) (*model.RedemptionRecord, error) {
	const q = `
SELECT id, referral_code_id, user_id, expires_at, applied_at
  FROM redemption_records
 WHERE referral_code_id = $1 AND user_id = $2;
`
	row, err := pickRow(ctx, r.pool, tx, q, codeID, userID)
	if err != nil {
		return nil, err
	}

	var rec model.RedemptionRecord
	err = row.Scan(&rec.ID, &rec.ReferralCodeID, &rec.UserID, &rec.ExpiresAt, &rec.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rec, nil
}

// Insert appends a ledger entry. The unique index on
// (referral_code_id, user_id) is the authoritative single-use guard; a
// violation is mapped to domain.ErrAlreadyRedeemed so the use case can
// treat its pre-check as advisory.
func (r *redemptionRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RedemptionRecord) error {
	const q = `
INSERT INTO redemption_records (id, referral_code_id, user_id, expires_at, applied_at)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.ReferralCodeID, rec.UserID, rec.ExpiresAt, rec.AppliedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyRedeemed
		}
		return err
	}
	return nil
}

func (r *redemptionRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	const q = `SELECT COUNT(*) FROM redemption_records WHERE referral_code_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
