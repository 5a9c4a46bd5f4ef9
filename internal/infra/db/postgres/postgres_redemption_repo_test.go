//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
)

func TestRedemptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewRedemptionRepo(testPool)
	codeRepo := NewReferralCodeRepo(testPool)
	userRepo := NewUserRepo(testPool)

	// setupPrerequisites saves the code and user rows the ledger's foreign
	// keys require, returning the code ID.
	setupPrerequisites := func(t *testing.T, userIDs ...string) string {
		t.Helper()
		cleanup(t)
		code := &model.ReferralCode{Code: "WELCOME2024", IsActive: true, DurationMonths: 3}
		if err := codeRepo.Save(ctx, nil, code); err != nil {
			t.Fatalf("Failed to save prerequisite code: %v", err)
		}
		for _, id := range userIDs {
			u, err := model.NewUser(id, id+"@example.com")
			if err != nil {
				t.Fatalf("Failed to build prerequisite user: %v", err)
			}
			if err := userRepo.Save(ctx, nil, u); err != nil {
				t.Fatalf("Failed to save prerequisite user: %v", err)
			}
		}
		return code.ID
	}

	newRecord := func(codeID, userID string) *model.RedemptionRecord {
		return &model.RedemptionRecord{
			ID:             ulid.Make().String(),
			ReferralCodeID: codeID,
			UserID:         userID,
			ExpiresAt:      time.Now().AddDate(0, 3, 0),
			AppliedAt:      time.Now(),
		}
	}

	t.Run("should insert and find a record", func(t *testing.T) {
		codeID := setupPrerequisites(t, "user-1")

		rec := newRecord(codeID, "user-1")
		if err := repo.Insert(ctx, nil, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		found, err := repo.Find(ctx, nil, codeID, "user-1")
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if found.ID != rec.ID {
			t.Errorf("Expected record ID %q, got %q", rec.ID, found.ID)
		}
	})

	t.Run("duplicate insert hits the unique constraint", func(t *testing.T) {
		codeID := setupPrerequisites(t, "user-1")

		if err := repo.Insert(ctx, nil, newRecord(codeID, "user-1")); err != nil {
			t.Fatalf("First insert failed: %v", err)
		}
		err := repo.Insert(ctx, nil, newRecord(codeID, "user-1"))
		if !errors.Is(err, domain.ErrAlreadyRedeemed) {
			t.Fatalf("Expected ErrAlreadyRedeemed, got: %v", err)
		}

		n, err := repo.CountByCode(ctx, nil, codeID)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("Expected exactly 1 ledger entry, got %d", n)
		}
	})

	t.Run("concurrent inserts for one user admit exactly one", func(t *testing.T) {
		codeID := setupPrerequisites(t, "user-1")

		const attempts = 8
		results := make(chan error, attempts)
		var wg sync.WaitGroup
		wg.Add(attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				defer wg.Done()
				results <- repo.Insert(ctx, nil, newRecord(codeID, "user-1"))
			}()
		}
		wg.Wait()
		close(results)

		var ok, dup int
		for err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrAlreadyRedeemed):
				dup++
			default:
				t.Errorf("Unexpected insert error: %v", err)
			}
		}
		if ok != 1 || dup != attempts-1 {
			t.Errorf("Expected 1 success and %d duplicates, got %d/%d", attempts-1, ok, dup)
		}
	})

	t.Run("same code is redeemable by distinct users", func(t *testing.T) {
		codeID := setupPrerequisites(t, "user-1", "user-2")

		if err := repo.Insert(ctx, nil, newRecord(codeID, "user-1")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Insert(ctx, nil, newRecord(codeID, "user-2")); err != nil {
			t.Fatalf("Second user's insert failed: %v", err)
		}

		n, err := repo.CountByCode(ctx, nil, codeID)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("Expected 2 ledger entries, got %d", n)
		}
	})

	t.Run("Find returns not found for missing record", func(t *testing.T) {
		codeID := setupPrerequisites(t)
		if _, err := repo.Find(ctx, nil, codeID, "nobody"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got: %v", err)
		}
	})
}
