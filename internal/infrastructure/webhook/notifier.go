package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/go-autopost/internal/domain"
)

// Event is the JSON body POSTed to the configured notification endpoint
// when a verification request is created.
type Event struct {
	VerificationID string    `json:"id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created"`
	DetailURL      string    `json:"detail_url,omitempty"`
}

// Notifier delivers new-challenge events over HTTP. Delivery is bounded by
// a small retry budget; the caller treats any remaining failure as
// non-fatal.
type Notifier struct {
	endpoint  string
	detailURL string // base URL of the admin surface, may be empty
	client    *http.Client
	attempts  uint
	wait      time.Duration
}

func NewNotifier(endpoint, adminBaseURL string) *Notifier {
	return &Notifier{
		endpoint:  endpoint,
		detailURL: adminBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		attempts:  3,
		wait:      time.Second,
	}
}

// Notify POSTs the event, retrying transient failures a few times.
func (n *Notifier) Notify(ctx context.Context, v *domain.VerificationRequest) error {
	ev := Event{
		VerificationID: v.VerificationID,
		Status:         v.Status,
		CreatedAt:      v.CreatedAt,
	}
	if n.detailURL != "" {
		ev.DetailURL = fmt.Sprintf("%s/admin/verifications/%s", n.detailURL, v.VerificationID)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	return retry.Retry(func(uint) error {
		return n.post(ctx, body)
	}, strategy.Limit(n.attempts), strategy.Wait(n.wait))
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}
