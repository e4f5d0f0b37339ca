package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"nick8/models"
)

// DynamoAPI is the part of the DynamoDB client the store calls.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps the four collections in DynamoDB tables keyed by UserEmail.
type DynamoStore struct {
	client DynamoAPI
}

// dynamoEntry is the FoodEntries item layout. Timestamp is a fixed-width
// string so that BETWEEN on the index compares chronologically.
type dynamoEntry struct {
	EntryID        string                 `dynamodbav:"EntryId"`
	UserEmail      string                 `dynamodbav:"UserEmail"`
	Timestamp      string                 `dynamodbav:"Timestamp"`
	FoodName       string                 `dynamodbav:"FoodName"`
	Ingredients    []string               `dynamodbav:"Ingredients"`
	NutritionFacts map[string]interface{} `dynamodbav:"NutritionFacts"`
}

type dynamoStreak struct {
	Streak      int    `dynamodbav:"Streak"`
	LastUpdated string `dynamodbav:"LastUpdated"`
}

type dynamoLogCount struct {
	TotalLogs int `dynamodbav:"TotalLogs"`
}

type dynamoBadges struct {
	Badges []string `dynamodbav:"Badges"`
}

func NewDynamoStore(client DynamoAPI) *DynamoStore {
	return &DynamoStore{client: client}
}

// ConnectDynamoDB builds a client from the default AWS credential chain.
// endpoint overrides the service URL, e.g. for DynamoDB Local.
func ConnectDynamoDB(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func userKey(userEmail string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"UserEmail": &types.AttributeValueMemberS{Value: userEmail},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (s *DynamoStore) AppendEntry(ctx context.Context, entry models.FoodEntry) (string, error) {
	item, err := attributevalue.MarshalMap(dynamoEntry{
		EntryID:        entry.EntryID,
		UserEmail:      entry.UserEmail,
		Timestamp:      entry.Timestamp.UTC().Format(models.TimestampLayout),
		FoodName:       entry.FoodName,
		Ingredients:    entry.Ingredients,
		NutritionFacts: entry.NutritionFacts,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal entry: %w", models.ErrInvalidInput, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(EntriesCollection),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(EntryId)"),
	})
	if err != nil {
		return "", unavailable("append entry", err)
	}
	return entry.EntryID, nil
}

func (s *DynamoStore) QueryRange(ctx context.Context, userEmail string, start, end time.Time) ([]models.FoodEntry, error) {
	// BETWEEN is inclusive and timestamps carry millisecond precision.
	last := end.UTC().Add(-time.Millisecond)
	input := &dynamodb.QueryInput{
		TableName:              aws.String(EntriesCollection),
		IndexName:              aws.String(EntriesIndex),
		KeyConditionExpression: aws.String("UserEmail = :email AND #ts BETWEEN :start AND :end"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "Timestamp",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: userEmail},
			":start": &types.AttributeValueMemberS{Value: start.UTC().Format(models.TimestampLayout)},
			":end":   &types.AttributeValueMemberS{Value: last.Format(models.TimestampLayout)},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var entries []models.FoodEntry
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, unavailable("query entries", err)
		}
		var items []dynamoEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, unavailable("decode entries", err)
		}
		for _, item := range items {
			ts, err := parseEntryTimestamp(item.Timestamp)
			if err != nil {
				return nil, unavailable("decode entry timestamp", err)
			}
			entries = append(entries, models.FoodEntry{
				EntryID:        item.EntryID,
				UserEmail:      item.UserEmail,
				Timestamp:      ts,
				FoodName:       item.FoodName,
				Ingredients:    item.Ingredients,
				NutritionFacts: item.NutritionFacts,
			})
		}
	}
	return entries, nil
}

func parseEntryTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(models.TimestampLayout, raw)
	if err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// GetStreak tolerates LastUpdated values stored as full ISO timestamps.
func (s *DynamoStore) GetStreak(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(StreaksCollection),
		Key:            userKey(userEmail),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.StreakRecord{}, unavailable("get streak", err)
	}

	record := models.StreakRecord{UserEmail: userEmail}
	if out.Item == nil {
		return record, nil
	}
	var item dynamoStreak
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return models.StreakRecord{}, unavailable("decode streak", err)
	}
	record.Streak = item.Streak
	record.LastUpdated, _, _ = strings.Cut(item.LastUpdated, "T")
	return record, nil
}

func (s *DynamoStore) CompareAndSetStreak(ctx context.Context, expectedLast string, next models.StreakRecord) (bool, error) {
	values := map[string]types.AttributeValue{
		":streak": &types.AttributeValueMemberN{Value: strconv.Itoa(next.Streak)},
		":last":   &types.AttributeValueMemberS{Value: next.LastUpdated},
	}
	condition := "attribute_not_exists(LastUpdated)"
	if expectedLast != "" {
		condition = "begins_with(LastUpdated, :prev)"
		values[":prev"] = &types.AttributeValueMemberS{Value: expectedLast}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(StreaksCollection),
		Key:                       userKey(next.UserEmail),
		UpdateExpression:          aws.String("SET Streak = :streak, LastUpdated = :last"),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, unavailable("update streak", err)
	}
	return true, nil
}

func (s *DynamoStore) GetLogCount(ctx context.Context, userEmail string) (int, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(LogCountsCollection),
		Key:       userKey(userEmail),
	})
	if err != nil {
		return 0, unavailable("get log count", err)
	}
	if out.Item == nil {
		return 0, nil
	}
	var item dynamoLogCount
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, unavailable("decode log count", err)
	}
	return item.TotalLogs, nil
}

func (s *DynamoStore) IncrementLogCount(ctx context.Context, userEmail string) (int, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(LogCountsCollection),
		Key:              userKey(userEmail),
		UpdateExpression: aws.String("SET TotalLogs = if_not_exists(TotalLogs, :start) + :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":start": &types.AttributeValueMemberN{Value: "0"},
			":inc":   &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, unavailable("increment log count", err)
	}
	var item dynamoLogCount
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, unavailable("decode log count", err)
	}
	return item.TotalLogs, nil
}

func (s *DynamoStore) GetBadges(ctx context.Context, userEmail string) ([]string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(BadgesCollection),
		Key:            userKey(userEmail),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, unavailable("get badges", err)
	}
	var item dynamoBadges
	if out.Item != nil {
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return nil, unavailable("decode badges", err)
		}
	}
	if item.Badges == nil {
		item.Badges = []string{}
	}
	return item.Badges, nil
}

// AddBadge appends to the Badges list only when the list does not contain
// the badge yet, so concurrent grants cannot duplicate it.
func (s *DynamoStore) AddBadge(ctx context.Context, userEmail, badge string) ([]string, bool, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(BadgesCollection),
		Key:                 userKey(userEmail),
		UpdateExpression:    aws.String("SET Badges = list_append(if_not_exists(Badges, :empty), :badge)"),
		ConditionExpression: aws.String("attribute_not_exists(Badges) OR NOT contains(Badges, :name)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":badge": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: badge},
			}},
			":name": &types.AttributeValueMemberS{Value: badge},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			badges, getErr := s.GetBadges(ctx, userEmail)
			return badges, false, getErr
		}
		return nil, false, unavailable("add badge", err)
	}

	var item dynamoBadges
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, false, unavailable("decode badges", err)
	}
	return item.Badges, true, nil
}
