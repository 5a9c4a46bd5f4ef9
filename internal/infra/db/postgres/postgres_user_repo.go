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
var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now()
	}

	const q = `
INSERT INTO users (id, email, membership_tier, status, registered_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  membership_tier = EXCLUDED.membership_tier,
  status = EXCLUDED.status;
`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.MembershipTier, u.Status, u.RegisteredAt)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, email, membership_tier, status, registered_at
  FROM users
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var u model.User
	err = row.Scan(&u.ID, &u.Email, &u.MembershipTier, &u.Status, &u.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}

// ApplyEntitlement sets the membership tier and status without reading
// them first; the redemption flow writes the entitlement blindly.
func (r *userRepo) ApplyEntitlement(ctx context.Context, tx repository.Tx, userID string, tier model.MembershipTier, status model.AccountStatus) error {
	const q = `UPDATE users SET membership_tier = $2, status = $3 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, tier, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
