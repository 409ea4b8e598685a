package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-autopost/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fakeChannel struct {
	mu    sync.Mutex
	name  string
	err   error
	sent  []*domain.VerificationRequest
	delay time.Duration
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(_ context.Context, v *domain.VerificationRequest) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, v)
	return f.err
}

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestDispatch_DeliversOnAllChannels(t *testing.T) {
	a := &fakeChannel{name: "a"}
	b := &fakeChannel{name: "b"}
	d := New(a, b)

	d.Dispatch(context.Background(), &domain.VerificationRequest{VerificationID: "v1"})

	assert.Equal(t, 1, a.sentCount())
	assert.Equal(t, 1, b.sentCount())
}

func TestDispatch_OneChannelFailingDoesNotStopOthers(t *testing.T) {
	failing := &fakeChannel{name: "sms", err: errors.New("sns unavailable")}
	healthy := &fakeChannel{name: "webhook"}
	d := New(failing, healthy)

	d.Dispatch(context.Background(), &domain.VerificationRequest{VerificationID: "v1"})

	assert.Equal(t, 1, healthy.sentCount())
}

func TestDispatch_NoChannelsIsHarmless(t *testing.T) {
	d := New()
	d.Dispatch(context.Background(), &domain.VerificationRequest{VerificationID: "v1"})
}

func TestDispatch_RunsChannelsConcurrently(t *testing.T) {
	slow1 := &fakeChannel{name: "a", delay: 50 * time.Millisecond}
	slow2 := &fakeChannel{name: "b", delay: 50 * time.Millisecond}
	d := New(slow1, slow2)

	start := time.Now()
	d.Dispatch(context.Background(), &domain.VerificationRequest{VerificationID: "v1"})

	assert.Less(t, time.Since(start), 90*time.Millisecond)
}
