package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-autopost/internal/domain"
)

// VerificationRepo provides typed DynamoDB operations for the verification
// requests table. PK: verification_id. Transitions out of `pending` are
// guarded by a conditional write, so two processes racing on the same record
// serialize per-record inside DynamoDB.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationRequest) error {
	item, err := attributevalue.MarshalMap(toRecord(v))
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(verification_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("verification id taken: %w", domain.ErrConflict)
		}
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, verificationID string) (*domain.VerificationRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("verification_id", verificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	v := rec.toDomain()
	return &v, nil
}

// ListByStatus queries the status-created_at GSI. The range key is the
// numeric created_at attribute, so the index orders results oldest first.
func (r *VerificationRepo) ListByStatus(ctx context.Context, status string) ([]domain.VerificationRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("status-created_at-index"),
		KeyConditionExpression: aws.String("#s = :status"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var recs []record
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return toDomainList(recs), nil
}

// FindPendingBySessionKey looks up the oldest pending request carrying the
// given stable session key via GSI. Used by a restarted publisher to resume
// waiting instead of creating a duplicate.
func (r *VerificationRepo) FindPendingBySessionKey(ctx context.Context, sessionKey string) (*domain.VerificationRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("session_key-index"),
		KeyConditionExpression: aws.String("session_key = :sk"),
		FilterExpression:       aws.String("#s = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk":      &types.AttributeValueMemberS{Value: sessionKey},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPending},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no pending verification for session key: %w", domain.ErrNotFound)
	}
	var recs []record
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	// The session_key index has no range key, so the query result carries
	// no ordering guarantee. Pick the oldest match ourselves.
	v := oldest(recs).toDomain()
	return &v, nil
}

// Transition moves a pending record to a terminal status, attaching code and
// resolved_at. The write is conditional on the record still being pending;
// ErrConflict is returned when another writer got there first, ErrNotFound
// when the id is unknown.
func (r *VerificationRepo) Transition(ctx context.Context, verificationID, newStatus, code string, resolvedAt time.Time) (*domain.VerificationRequest, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:     newStatus,
		fieldCode:       code,
		fieldResolvedAt: resolvedAt,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#cond"] = fieldStatus
	ue.Values[":pending"] = &types.AttributeValueMemberS{Value: domain.StatusPending}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("verification_id", verificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(verification_id) AND #cond = :pending"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Distinguish unknown id from an already-terminal record.
			if _, getErr := r.Get(ctx, verificationID); errors.Is(getErr, domain.ErrNotFound) {
				return nil, getErr
			}
			return nil, fmt.Errorf("verification not pending: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("transition verification: %w", err)
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, err
	}
	v := rec.toDomain()
	return &v, nil
}

// Delete removes a record outright. Used by the retention sweep.
func (r *VerificationRepo) Delete(ctx context.Context, verificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("verification_id", verificationID),
	})
	return err
}

// List scans the whole table. The table stays small (challenges are rare and
// TTL prunes old rows), so a scan is acceptable here.
func (r *VerificationRepo) List(ctx context.Context) ([]domain.VerificationRequest, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var recs []record
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return toDomainList(recs), nil
}

// Reset deletes every record in the table in batches of 25 (the
// BatchWriteItem limit).
func (r *VerificationRepo) Reset(ctx context.Context) error {
	all, err := r.List(ctx)
	if err != nil {
		return fmt.Errorf("reset scan: %w", err)
	}
	for start := 0; start < len(all); start += 25 {
		end := start + 25
		if end > len(all) {
			end = len(all)
		}
		writes := make([]types.WriteRequest, 0, end-start)
		for _, v := range all[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: strKey("verification_id", v.VerificationID),
				},
			})
		}
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: writes},
		})
		if err != nil {
			return fmt.Errorf("reset batch delete: %w", err)
		}
	}
	return nil
}
