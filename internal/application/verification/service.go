// Package verification owns the lifecycle rules for verification requests.
// The store (DynamoDB or file-backed) enforces the single pending→terminal
// edge; this service layers the idempotence and conflict semantics the
// operator surface and the publisher rely on.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/pkg/id"
)

// Store is the persistence contract this service requires. Both the
// DynamoDB repo and the file store satisfy it.
type Store interface {
	Put(ctx context.Context, v *domain.VerificationRequest) error
	Get(ctx context.Context, verificationID string) (*domain.VerificationRequest, error)
	List(ctx context.Context) ([]domain.VerificationRequest, error)
	ListByStatus(ctx context.Context, status string) ([]domain.VerificationRequest, error)
	FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.VerificationRequest, error)
	Transition(ctx context.Context, verificationID, newStatus, code string, resolvedAt time.Time) (*domain.VerificationRequest, error)
	Delete(ctx context.Context, verificationID string) error
	Reset(ctx context.Context) error
}

type Service interface {
	Create(ctx context.Context, sessionKey string, metadata map[string]string, screenshotKey string) (*domain.VerificationRequest, error)
	CreateTest(ctx context.Context) (*domain.VerificationRequest, error)
	Get(ctx context.Context, verificationID string) (*domain.VerificationRequest, error)
	ListPending(ctx context.Context) ([]domain.VerificationRequest, error)
	PendingCount(ctx context.Context) (int, error)
	FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.VerificationRequest, error)
	SubmitCode(ctx context.Context, verificationID, code string) (*domain.VerificationRequest, error)
	Reject(ctx context.Context, verificationID string) (*domain.VerificationRequest, error)
	Expire(ctx context.Context, verificationID string) (*domain.VerificationRequest, error)
	Reset(ctx context.Context) error
	Sweep(ctx context.Context, maxPendingAge, retention time.Duration) error
}

type service struct {
	store     Store
	retention time.Duration // drives the record TTL attribute
}

func NewService(store Store, retention time.Duration) Service {
	return &service{store: store, retention: retention}
}

func (s *service) Create(ctx context.Context, sessionKey string, metadata map[string]string, screenshotKey string) (*domain.VerificationRequest, error) {
	now := time.Now().UTC()
	v := &domain.VerificationRequest{
		VerificationID: id.New(),
		Status:         domain.StatusPending,
		SessionKey:     sessionKey,
		Metadata:       metadata,
		ScreenshotKey:  screenshotKey,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.retention).Unix(),
	}
	if err := s.store.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("create verification: %w", err)
	}
	return v, nil
}

// CreateTest synthesizes a pending record with placeholder metadata so the
// resolution flow can be exercised without live automation.
func (s *service) CreateTest(ctx context.Context) (*domain.VerificationRequest, error) {
	return s.Create(ctx, "", map[string]string{
		"account": "test",
		"source":  "manual test request",
	}, "")
}

func (s *service) Get(ctx context.Context, verificationID string) (*domain.VerificationRequest, error) {
	return s.store.Get(ctx, verificationID)
}

func (s *service) ListPending(ctx context.Context) ([]domain.VerificationRequest, error) {
	return s.store.ListByStatus(ctx, domain.StatusPending)
}

func (s *service) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

func (s *service) FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.VerificationRequest, error) {
	return s.store.FindPendingBySessionKey(ctx, sessionKey)
}

// SubmitCode transitions pending→completed. Re-submitting the identical code
// against an already-completed record succeeds without touching it, so an
// operator double-click or retried request is harmless. Any other submission
// against a non-pending record is a conflict.
func (s *service) SubmitCode(ctx context.Context, verificationID, code string) (*domain.VerificationRequest, error) {
	if code == "" {
		return nil, fmt.Errorf("code must not be empty: %w", domain.ErrBadRequest)
	}
	v, err := s.store.Transition(ctx, verificationID, domain.StatusCompleted, code, time.Now().UTC())
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	existing, getErr := s.store.Get(ctx, verificationID)
	if getErr != nil {
		return nil, getErr
	}
	if existing.Status == domain.StatusCompleted && existing.Code == code {
		return existing, nil
	}
	return nil, fmt.Errorf("verification already %s: %w", existing.Status, domain.ErrConflict)
}

func (s *service) Reject(ctx context.Context, verificationID string) (*domain.VerificationRequest, error) {
	return s.terminate(ctx, verificationID, domain.StatusRejected)
}

func (s *service) Expire(ctx context.Context, verificationID string) (*domain.VerificationRequest, error) {
	return s.terminate(ctx, verificationID, domain.StatusExpired)
}

// terminate applies a codeless terminal transition with the same
// idempotence rule as SubmitCode: repeating the transition the record
// already took is a no-op success, anything else is a conflict.
func (s *service) terminate(ctx context.Context, verificationID, status string) (*domain.VerificationRequest, error) {
	v, err := s.store.Transition(ctx, verificationID, status, "", time.Now().UTC())
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	existing, getErr := s.store.Get(ctx, verificationID)
	if getErr != nil {
		return nil, getErr
	}
	if existing.Status == status {
		return existing, nil
	}
	return nil, fmt.Errorf("verification already %s: %w", existing.Status, domain.ErrConflict)
}

func (s *service) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}

// Sweep expires pending records that outlived maxPendingAge (left behind by
// a cancelled automation run) and deletes terminal records older than the
// retention window. Per-record failures are logged and skipped so one bad
// record cannot stall the whole sweep.
func (s *service) Sweep(ctx context.Context, maxPendingAge, retention time.Duration) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("sweep list: %w", err)
	}
	now := time.Now().UTC()
	var expired, purged int
	for _, v := range all {
		switch {
		case v.Status == domain.StatusPending && now.Sub(v.CreatedAt) > maxPendingAge:
			if _, err := s.Expire(ctx, v.VerificationID); err != nil {
				slog.Warn("sweep could not expire record", "id", v.VerificationID, "err", err)
				continue
			}
			expired++
		case domain.TerminalStatus(v.Status) && now.Sub(v.CreatedAt) > retention:
			if err := s.store.Delete(ctx, v.VerificationID); err != nil {
				slog.Warn("sweep could not delete record", "id", v.VerificationID, "err", err)
				continue
			}
			purged++
		}
	}
	if expired > 0 || purged > 0 {
		slog.Info("verification sweep finished", "expired", expired, "purged", purged)
	}
	return nil
}
