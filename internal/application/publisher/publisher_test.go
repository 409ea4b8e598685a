package publisher

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/infrastructure/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []*domain.VerificationRequest
}

func (c *captureNotifier) Dispatch(_ context.Context, v *domain.VerificationRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestPublisher(t *testing.T, pollInterval, deadline time.Duration) (*Publisher, verification.Service, *captureNotifier) {
	t.Helper()
	store := filestore.New(filepath.Join(t.TempDir(), "verifications.json"))
	svc := verification.NewService(store, time.Hour)
	n := &captureNotifier{}
	return New(svc, n, pollInterval, deadline), svc, n
}

func TestRequest_FilesRecordAndNotifies(t *testing.T) {
	pub, _, n := newTestPublisher(t, 10*time.Millisecond, time.Minute)

	v, err := pub.Request(context.Background(), "login:bot1", map[string]string{"account": "bot1"}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, v.Status)
	assert.Equal(t, "login:bot1", v.SessionKey)
	assert.Equal(t, 1, n.count())
}

func TestRequest_ResumesPendingForSameSessionKey(t *testing.T) {
	pub, _, n := newTestPublisher(t, 10*time.Millisecond, time.Minute)
	ctx := context.Background()

	first, err := pub.Request(ctx, "login:bot1", nil, "")
	require.NoError(t, err)
	second, err := pub.Request(ctx, "login:bot1", nil, "")
	require.NoError(t, err)

	assert.Equal(t, first.VerificationID, second.VerificationID)
	assert.Equal(t, 1, n.count(), "a resumed request must not re-notify")
}

func TestAwait_ReturnsCodeOnceResolved(t *testing.T) {
	pub, svc, _ := newTestPublisher(t, 10*time.Millisecond, time.Minute)
	ctx := context.Background()

	v, err := pub.Request(ctx, "login:bot1", nil, "")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		if _, err := svc.SubmitCode(ctx, v.VerificationID, "482913"); err != nil {
			t.Error(err)
		}
	}()

	start := time.Now()
	code, err := pub.Await(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, "482913", code)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAwait_DeadlineExpiresRecord(t *testing.T) {
	pub, svc, _ := newTestPublisher(t, 10*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	v, err := pub.Request(ctx, "login:bot1", nil, "")
	require.NoError(t, err)

	start := time.Now()
	_, err = pub.Await(ctx, v)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	current, err := svc.Get(ctx, v.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, current.Status)
}

func TestAwait_RejectionSurfacesErrRejected(t *testing.T) {
	pub, svc, _ := newTestPublisher(t, 10*time.Millisecond, time.Minute)
	ctx := context.Background()

	v, err := pub.Request(ctx, "login:bot1", nil, "")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		if _, err := svc.Reject(ctx, v.VerificationID); err != nil {
			t.Error(err)
		}
	}()

	_, err = pub.Await(ctx, v)
	assert.ErrorIs(t, err, domain.ErrRejected)
}

func TestAwait_CancellationLeavesRecordPending(t *testing.T) {
	pub, svc, _ := newTestPublisher(t, 10*time.Millisecond, time.Minute)

	v, err := pub.Request(context.Background(), "login:bot1", nil, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err = pub.Await(ctx, v)
	assert.ErrorIs(t, err, context.Canceled)

	current, err := svc.Get(context.Background(), v.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, current.Status, "a cancelled wait must not mutate the record")
}

func TestRequestAndAwait_EndToEnd(t *testing.T) {
	pub, svc, _ := newTestPublisher(t, 10*time.Millisecond, time.Minute)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pending, err := svc.ListPending(ctx)
			if err == nil && len(pending) > 0 {
				if _, err := svc.SubmitCode(ctx, pending[0].VerificationID, "777000"); err != nil {
					t.Error(err)
				}
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	code, err := pub.RequestAndAwait(ctx, "login:bot1", map[string]string{"account": "bot1"}, "")
	<-done
	require.NoError(t, err)
	assert.Equal(t, "777000", code)
}
