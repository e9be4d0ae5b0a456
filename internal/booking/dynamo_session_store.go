package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// sessionItem is the DynamoDB shape of a Session. expiresAt drives the table TTL.
type sessionItem struct {
	ConversationID      string    `dynamodbav:"conversationId"`
	Department          string    `dynamodbav:"department"`
	ConsultationSummary string    `dynamodbav:"consultationSummary"`
	Fields              Fields    `dynamodbav:"fields"`
	CreatedAt           time.Time `dynamodbav:"createdAt"`
	UpdatedAt           time.Time `dynamodbav:"updatedAt"`
	ExpiresAt           int64     `dynamodbav:"expiresAt,omitempty"`
}

func (i sessionItem) session() *Session {
	return &Session{
		ConversationID:      i.ConversationID,
		Department:          i.Department,
		ConsultationSummary: i.ConsultationSummary,
		Fields:              i.Fields,
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
	}
}

// DynamoSessionStore persists sessions in a DynamoDB table keyed by conversationId.
// DynamoDB deletes expired items lazily, so reads also check expiresAt.
type DynamoSessionStore struct {
	client    dynamoAPI
	tableName string
	policy    ExpiryPolicy
	maxAge    time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

var _ SessionStore = (*DynamoSessionStore)(nil)

func NewDynamoSessionStore(client dynamoAPI, tableName string, policy ExpiryPolicy, maxAge time.Duration, logger *logging.Logger) *DynamoSessionStore {
	if client == nil {
		panic("booking: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("booking: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoSessionStore{
		client:    client,
		tableName: tableName,
		policy:    policy,
		maxAge:    maxAge,
		now:       time.Now,
		logger:    logger,
	}
}

func (d *DynamoSessionStore) Put(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("booking: session cannot be nil")
	}
	item := sessionItem{
		ConversationID:      s.ConversationID,
		Department:          s.Department,
		ConsultationSummary: s.ConsultationSummary,
		Fields:              s.Fields,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if d.maxAge > 0 {
		item.ExpiresAt = d.policy.Anchor(s).Add(d.maxAge).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("booking: failed to marshal session: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("booking: failed to persist session: %w", err)
	}
	return nil
}

func (d *DynamoSessionStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            sessionItemKey(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: failed to fetch session: %w", err)
	}
	return d.decodeLive(out.Item)
}

func (d *DynamoSessionStore) Take(ctx context.Context, conversationID string) (*Session, error) {
	out, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.tableName),
		Key:          sessionItemKey(conversationID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("booking: failed to delete session: %w", err)
	}
	return d.decodeLive(out.Attributes)
}

func (d *DynamoSessionStore) ExpiredIDs(ctx context.Context, maxAge time.Duration, now time.Time) ([]string, error) {
	var ids []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return ids, fmt.Errorf("booking: session scan failed: %w", err)
		}
		for _, raw := range out.Items {
			var item sessionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				d.logger.Warn("skipping undecodable session item", "error", err)
				continue
			}
			if d.policy.Expired(item.session(), maxAge, now) {
				ids = append(ids, item.ConversationID)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return ids, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (d *DynamoSessionStore) DeleteIfExpired(ctx context.Context, conversationID string, maxAge time.Duration, now time.Time) (bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            sessionItemKey(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("booking: failed to fetch session: %w", err)
	}
	if len(out.Item) == 0 {
		return false, nil
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("booking: failed to decode session: %w", err)
	}
	if !d.policy.Expired(item.session(), maxAge, now) {
		return false, nil
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       sessionItemKey(conversationID),
	}); err != nil {
		return false, fmt.Errorf("booking: failed to delete expired session: %w", err)
	}
	return true, nil
}

func (d *DynamoSessionStore) decodeLive(raw map[string]types.AttributeValue) (*Session, error) {
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("booking: failed to decode session: %w", err)
	}
	if item.ExpiresAt > 0 && item.ExpiresAt <= d.now().Unix() {
		return nil, ErrSessionNotFound
	}
	return item.session(), nil
}

func sessionItemKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}
