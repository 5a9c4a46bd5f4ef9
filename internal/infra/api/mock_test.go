//go:build !integration

package api_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hakudoge53/candilingo-sub001/internal/config"
	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
	"github.com/hakudoge53/candilingo-sub001/internal/infra/api"
	"github.com/hakudoge53/candilingo-sub001/internal/usecase"
)

//
// ---------------- in-memory infra mocks (repos/limiter) ----------------
//

type memCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.ReferralCode

	saveErr error
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: map[string]*model.ReferralCode{}}
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.store[code.ID] = &cp
	return nil
}

func (m *memCodeRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.Code == code && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, codeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[codeID]
	if !ok {
		return domain.ErrNotFound
	}
	c.UsageCount++
	return nil
}

func (m *memCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ReferralCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.ReferralCode, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memLedgerRepo struct {
	mu    sync.Mutex
	store map[string]*model.RedemptionRecord
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{store: map[string]*model.RedemptionRecord{}}
}

func (m *memLedgerRepo) Find(ctx context.Context, tx repository.Tx, codeID, userID string) (*model.RedemptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[codeID+"|"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memLedgerRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RedemptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.ReferralCodeID + "|" + rec.UserID
	if _, exists := m.store[key]; exists {
		return domain.ErrAlreadyRedeemed
	}
	cp := *rec
	m.store[key] = &cp
	return nil
}

func (m *memLedgerRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.store {
		if rec.ReferralCodeID == codeID {
			n++
		}
	}
	return n, nil
}

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: map[string]*model.User{}}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) ApplyEntitlement(ctx context.Context, tx repository.Tx, userID string, tier model.MembershipTier, status model.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.MembershipTier = tier
	u.Status = status
	return nil
}

// stubLimiter lets tests flip between allowing and rejecting attempts.
type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.allow, s.err
}

//
// ---------------- server fixture ----------------
//

const (
	testJWTSecret = "test-secret"
	testAdminKey  = "admin-key"
)

type serverFixture struct {
	srv     *api.Server
	codes   *memCodeRepo
	ledger  *memLedgerRepo
	users   *memUserRepo
	limiter *stubLimiter
}

func newServerFixture() *serverFixture {
	logger := zerolog.Nop()

	codes := newMemCodeRepo()
	ledger := newMemLedgerRepo()
	users := newMemUserRepo()
	limiter := &stubLimiter{allow: true}

	_ = codes.Save(context.Background(), nil, &model.ReferralCode{
		ID:             "code-1",
		Code:           "WELCOME2024",
		IsActive:       true,
		DurationMonths: 3,
		CreatedAt:      time.Now(),
	})
	_ = users.Save(context.Background(), nil, &model.User{
		ID:             "u1",
		Email:          "u1@example.com",
		MembershipTier: model.TierFree,
		Status:         model.StatusActive,
	})

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.JWTSecret = testJWTSecret
	cfg.Server.AdminAPIKey = testAdminKey
	cfg.Server.Timeout = 5 * time.Second
	cfg.Referral.AttemptLimit = 10
	cfg.Referral.AttemptWindow = time.Minute

	referralUC := usecase.NewReferralUseCase(codes, ledger, users, &logger)
	codeUC := usecase.NewCodeUseCase(codes, ledger, &logger)

	return &serverFixture{
		srv:     api.NewServer(referralUC, codeUC, limiter, cfg, &logger),
		codes:   codes,
		ledger:  ledger,
		users:   users,
		limiter: limiter,
	}
}
