package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB key layout: one item per session, PK=SESSION#<id>, SK=USAGE,
// with an expiresAt TTL attribute.
const (
	pkPrefix = "SESSION#"
	skUsage  = "USAGE"
)

// DynamoAPI is the subset of the DynamoDB client DynamoStore uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore keeps usage summaries in a DynamoDB table with TTL enabled on
// expiresAt.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, now: time.Now}
}

func sessionPK(sessionID string) string {
	return pkPrefix + sessionID
}

func (d *DynamoStore) key(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
		"SK": &types.AttributeValueMemberS{Value: skUsage},
	}
}

func (d *DynamoStore) Save(ctx context.Context, s Summary) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal usage %s: %w", s.ID, err)
	}
	for k, v := range d.key(s.ID) {
		item[k] = v
	}
	expires := time.UnixMilli(s.StartTime).Add(Retention).Unix()
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &d.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", sessionPK(s.ID), skUsage, err)
	}
	return nil
}

func (d *DynamoStore) Get(ctx context.Context, sessionID string) (*Summary, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &d.tableName,
		Key:       d.key(sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem PK=%s SK=%s: %w", sessionPK(sessionID), skUsage, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	// TTL deletion lags by up to a couple of days, so expiry is checked here too.
	if av, ok := result.Item["expiresAt"].(*types.AttributeValueMemberN); ok {
		if exp, err := strconv.ParseInt(av.Value, 10, 64); err == nil && d.now().Unix() > exp {
			return nil, nil
		}
	}

	var s Summary
	if err := attributevalue.UnmarshalMap(result.Item, &s); err != nil {
		return nil, fmt.Errorf("unmarshal usage %s: %w", sessionID, err)
	}
	return &s, nil
}
