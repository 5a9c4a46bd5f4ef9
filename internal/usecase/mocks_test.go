//go:build !integration

package usecase_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// MockCodeRepo is a small in-memory code registry used by unit tests.
type MockCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.ReferralCode // by ID

	SaveFunc             func(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error
	FindActiveByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error)
	IncrementUsageFunc   func(ctx context.Context, tx repository.Tx, codeID string) error
}

func NewMockCodeRepo() *MockCodeRepo {
	return &MockCodeRepo{store: make(map[string]*model.ReferralCode)}
}

func (m *MockCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ReferralCode) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.store[code.ID] = &cp
	return nil
}

func (m *MockCodeRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferralCode, error) {
	if m.FindActiveByCodeFunc != nil {
		return m.FindActiveByCodeFunc(ctx, tx, code)
	}
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

func (m *MockCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, codeID string) error {
	if m.IncrementUsageFunc != nil {
		return m.IncrementUsageFunc(ctx, tx, codeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[codeID]
	if !ok {
		return domain.ErrNotFound
	}
	c.UsageCount++
	return nil
}

func (m *MockCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ReferralCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.ReferralCode, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// Get returns a copy of the stored code, for before/after assertions.
func (m *MockCodeRepo) Get(id string) *model.ReferralCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// MockLedgerRepo is an in-memory redemption ledger. Insert enforces the
// (codeID, userID) unique constraint the way the real storage layer does,
// so race tests against it are meaningful.
type MockLedgerRepo struct {
	mu    sync.Mutex
	store map[string]*model.RedemptionRecord // key codeID|userID

	FindFunc   func(ctx context.Context, tx repository.Tx, codeID, userID string) (*model.RedemptionRecord, error)
	InsertFunc func(ctx context.Context, tx repository.Tx, rec *model.RedemptionRecord) error
	// InsertGate, when set, is called before the insert takes effect.
	// Race tests use it to hold both contenders past the advisory pre-check.
	InsertGate func()
}

func NewMockLedgerRepo() *MockLedgerRepo {
	return &MockLedgerRepo{store: make(map[string]*model.RedemptionRecord)}
}

func ledgerKey(codeID, userID string) string { return codeID + "|" + userID }

func (m *MockLedgerRepo) Find(ctx context.Context, tx repository.Tx, codeID, userID string) (*model.RedemptionRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, codeID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[ledgerKey(codeID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockLedgerRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RedemptionRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, rec)
	}
	if m.InsertGate != nil {
		m.InsertGate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey(rec.ReferralCodeID, rec.UserID)
	if _, exists := m.store[key]; exists {
		return domain.ErrAlreadyRedeemed
	}
	cp := *rec
	m.store[key] = &cp
	return nil
}

func (m *MockLedgerRepo) CountByCode(ctx context.Context, tx repository.Tx, codeID string) (int, error) {
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

// Records returns a snapshot of all ledger entries.
func (m *MockLedgerRepo) Records() []*model.RedemptionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.RedemptionRecord, 0, len(m.store))
	for _, rec := range m.store {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// MockUserRepo is an in-memory account store.
type MockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	ApplyEntitlementFunc func(ctx context.Context, tx repository.Tx, userID string, tier model.MembershipTier, status model.AccountStatus) error
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) ApplyEntitlement(ctx context.Context, tx repository.Tx, userID string, tier model.MembershipTier, status model.AccountStatus) error {
	if m.ApplyEntitlementFunc != nil {
		return m.ApplyEntitlementFunc(ctx, tx, userID, tier, status)
	}
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

// Get returns a copy of the stored user, for before/after assertions.
func (m *MockUserRepo) Get(id string) *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}
