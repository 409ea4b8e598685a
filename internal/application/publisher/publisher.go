// Package publisher is the automation-side entry into the verification
// flow. When the browser run hits a challenge screen, the publisher files a
// verification request, announces it, and blocks until an operator resolves
// it or the deadline passes.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/domain"
)

// Notifier announces a newly filed verification request to the operator
// channels. Delivery is best effort; implementations must not block beyond
// their own timeouts.
type Notifier interface {
	Dispatch(ctx context.Context, v *domain.VerificationRequest)
}

type Publisher struct {
	svc          verification.Service
	notifier     Notifier
	pollInterval time.Duration
	deadline     time.Duration
}

func New(svc verification.Service, notifier Notifier, pollInterval, deadline time.Duration) *Publisher {
	return &Publisher{svc: svc, notifier: notifier, pollInterval: pollInterval, deadline: deadline}
}

// Request files a verification request, or resumes the oldest pending one
// for the same session key if a previous run already filed it. Only a fresh
// request triggers operator notification; a resumed one was announced when
// it was first filed.
func (p *Publisher) Request(ctx context.Context, sessionKey string, metadata map[string]string, screenshotKey string) (*domain.VerificationRequest, error) {
	if existing, err := p.svc.FindPendingBySessionKey(ctx, sessionKey); err == nil && existing != nil {
		slog.Info("resuming pending verification", "id", existing.VerificationID, "session_key", sessionKey)
		return existing, nil
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find pending verification: %w", err)
	}

	v, err := p.svc.Create(ctx, sessionKey, metadata, screenshotKey)
	if err != nil {
		return nil, err
	}
	slog.Info("verification requested", "id", v.VerificationID, "session_key", sessionKey)
	if p.notifier != nil {
		p.notifier.Dispatch(ctx, v)
	}
	return v, nil
}

// Await polls the record until it reaches a terminal status. A completed
// record yields its code. The deadline counts from the record's creation, so
// a resumed wait does not restart the clock; when it passes, Await expires
// the record and reports ErrTimeout. Cancelling the context abandons the
// wait without touching the record, leaving it resolvable for the next run.
func (p *Publisher) Await(ctx context.Context, v *domain.VerificationRequest) (string, error) {
	deadline := v.CreatedAt.Add(p.deadline)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		current, err := p.svc.Get(ctx, v.VerificationID)
		if err != nil {
			return "", fmt.Errorf("poll verification %s: %w", v.VerificationID, err)
		}
		switch current.Status {
		case domain.StatusCompleted:
			slog.Info("verification resolved", "id", current.VerificationID)
			return current.Code, nil
		case domain.StatusRejected:
			return "", fmt.Errorf("verification %s: %w", current.VerificationID, domain.ErrRejected)
		case domain.StatusExpired:
			return "", fmt.Errorf("verification %s: %w", current.VerificationID, domain.ErrTimeout)
		}

		if time.Now().After(deadline) {
			return p.expire(ctx, v.VerificationID)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// RequestAndAwait is the single-call form used by the posting flow.
func (p *Publisher) RequestAndAwait(ctx context.Context, sessionKey string, metadata map[string]string, screenshotKey string) (string, error) {
	v, err := p.Request(ctx, sessionKey, metadata, screenshotKey)
	if err != nil {
		return "", err
	}
	return p.Await(ctx, v)
}

// expire marks the record expired. An operator may resolve it in the race
// between the last poll and the deadline; the conflict re-read surfaces
// that, and a record completed just in time still yields its code instead
// of a timeout.
func (p *Publisher) expire(ctx context.Context, verificationID string) (string, error) {
	if _, err := p.svc.Expire(ctx, verificationID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if current, getErr := p.svc.Get(ctx, verificationID); getErr == nil && current.Status == domain.StatusCompleted {
				slog.Info("verification resolved at deadline", "id", verificationID)
				return current.Code, nil
			}
		} else {
			slog.Error("could not expire verification", "id", verificationID, "err", err)
		}
	}
	return "", fmt.Errorf("verification %s: %w", verificationID, domain.ErrTimeout)
}
