package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-autopost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecord_EmptySessionKeyOmitted(t *testing.T) {
	v := &domain.VerificationRequest{
		VerificationID: "01ABC",
		Status:         domain.StatusPending,
		CreatedAt:      time.Now(),
	}
	item, err := attributevalue.MarshalMap(toRecord(v))
	require.NoError(t, err)

	// session_key is an index hash key; an empty string there would make
	// DynamoDB reject the whole PutItem.
	_, present := item["session_key"]
	assert.False(t, present)
}

func TestToRecord_SessionKeyKept(t *testing.T) {
	v := &domain.VerificationRequest{
		VerificationID: "01ABC",
		Status:         domain.StatusPending,
		SessionKey:     "login:autopost",
		CreatedAt:      time.Now(),
	}
	item, err := attributevalue.MarshalMap(toRecord(v))
	require.NoError(t, err)

	sv, ok := item["session_key"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "login:autopost", sv.Value)
}

func TestToRecord_CreatedAtIsNumericSortKey(t *testing.T) {
	// Sub-second timestamps whose RFC3339 renderings would not sort
	// byte-wise in time order ("...05.8Z" vs "...05.81Z").
	earlier := time.Date(2026, 8, 31, 10, 0, 5, 800_000_000, time.UTC)
	later := time.Date(2026, 8, 31, 10, 0, 5, 810_000_000, time.UTC)

	a := toRecord(&domain.VerificationRequest{VerificationID: "a", CreatedAt: earlier})
	b := toRecord(&domain.VerificationRequest{VerificationID: "b", CreatedAt: later})
	assert.Less(t, a.CreatedAt, b.CreatedAt)

	item, err := attributevalue.MarshalMap(a)
	require.NoError(t, err)
	_, isNum := item["created_at"].(*types.AttributeValueMemberN)
	assert.True(t, isNum, "created_at must marshal as N for numeric index ordering")
}

func TestRecordRoundTrip(t *testing.T) {
	resolved := time.Date(2026, 8, 31, 10, 1, 0, 0, time.UTC)
	v := &domain.VerificationRequest{
		VerificationID: "01ABC",
		Status:         domain.StatusCompleted,
		Code:           "482913",
		SessionKey:     "login:autopost",
		Metadata:       map[string]string{"account": "autopost"},
		ScreenshotKey:  "challenges/autopost/1700000000.png",
		CreatedAt:      time.Date(2026, 8, 31, 10, 0, 5, 123_456_789, time.UTC),
		ResolvedAt:     &resolved,
		ExpiresAt:      1700000000,
	}
	got := toRecord(v).toDomain()
	assert.Equal(t, *v, got)
}

func TestOldest_PicksSmallestCreatedAt(t *testing.T) {
	recs := []record{
		{VerificationID: "b", CreatedAt: 20},
		{VerificationID: "a", CreatedAt: 10},
		{VerificationID: "c", CreatedAt: 30},
	}
	assert.Equal(t, "a", oldest(recs).VerificationID)
}
