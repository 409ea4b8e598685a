package dynamo

import (
	"time"

	"github.com/go-autopost/internal/domain"
)

// record is the table shape of a verification request. It differs from the
// domain struct in two ways that matter for the indexes:
//
//   - created_at is stored as epoch nanoseconds (an N attribute). It is the
//     range key of status-created_at-index, and numbers sort numerically,
//     while RFC3339 strings with variable fractional digits do not sort
//     byte-wise in time order.
//   - session_key carries omitempty. It is the hash key of session_key-index,
//     and DynamoDB rejects writes where an index key attribute is an empty
//     string; omitting it keeps records without a session key out of the
//     index entirely.
type record struct {
	VerificationID string            `dynamodbav:"verification_id"`
	Status         string            `dynamodbav:"status"`
	Code           string            `dynamodbav:"code"`
	SessionKey     string            `dynamodbav:"session_key,omitempty"`
	Metadata       map[string]string `dynamodbav:"metadata"`
	ScreenshotKey  string            `dynamodbav:"screenshot_key"`
	CreatedAt      int64             `dynamodbav:"created_at"`
	ResolvedAt     *time.Time        `dynamodbav:"resolved_at"`
	ExpiresAt      int64             `dynamodbav:"expires_at"`
}

func toRecord(v *domain.VerificationRequest) record {
	return record{
		VerificationID: v.VerificationID,
		Status:         v.Status,
		Code:           v.Code,
		SessionKey:     v.SessionKey,
		Metadata:       v.Metadata,
		ScreenshotKey:  v.ScreenshotKey,
		CreatedAt:      v.CreatedAt.UnixNano(),
		ResolvedAt:     v.ResolvedAt,
		ExpiresAt:      v.ExpiresAt,
	}
}

func (r record) toDomain() domain.VerificationRequest {
	return domain.VerificationRequest{
		VerificationID: r.VerificationID,
		Status:         r.Status,
		Code:           r.Code,
		SessionKey:     r.SessionKey,
		Metadata:       r.Metadata,
		ScreenshotKey:  r.ScreenshotKey,
		CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
		ResolvedAt:     r.ResolvedAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

func toDomainList(recs []record) []domain.VerificationRequest {
	requests := make([]domain.VerificationRequest, len(recs))
	for i, r := range recs {
		requests[i] = r.toDomain()
	}
	return requests
}

// oldest returns the record with the smallest created_at. Callers guarantee
// recs is non-empty.
func oldest(recs []record) record {
	min := recs[0]
	for _, r := range recs[1:] {
		if r.CreatedAt < min.CreatedAt {
			min = r
		}
	}
	return min
}
