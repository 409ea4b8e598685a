package domain

import "time"

// Verification request statuses. A request starts pending and takes exactly
// one edge to a terminal state; terminal states never revert.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusExpired   = "expired"
)

// TerminalStatus reports whether s is a terminal verification status.
func TerminalStatus(s string) bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusExpired
}

// VerificationRequest tracks one platform challenge from creation to
// resolution. It is the unit of coordination between the bot process and
// the admin process; the store is the sole authority for its state.
type VerificationRequest struct {
	VerificationID string            `json:"id"`
	Status         string            `json:"status"`
	Code           string            `json:"code,omitempty"`
	SessionKey     string            `json:"session_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ScreenshotKey  string            `json:"screenshot_key,omitempty"`
	CreatedAt      time.Time         `json:"created"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	ExpiresAt      int64             `json:"-"` // TTL (Unix seconds)
}

// SubmitCodeRequest is the operator payload for resolving a request.
type SubmitCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// VerificationSummary is the trimmed record returned by list endpoints.
type VerificationSummary struct {
	VerificationID string    `json:"id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created"`
}

// Summary returns the list-view projection of the request.
func (v *VerificationRequest) Summary() VerificationSummary {
	return VerificationSummary{
		VerificationID: v.VerificationID,
		Status:         v.Status,
		CreatedAt:      v.CreatedAt,
	}
}
